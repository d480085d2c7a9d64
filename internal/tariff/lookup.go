package tariff

import "github.com/yashdodwani/gridflow/internal/civiltime"

// BandAt returns the band covering the wall-clock time of at. Bands are
// scanned in ascending start order and the first match wins.
func (s *Schedule) BandAt(at civiltime.Instant) (Band, error) {
	idx, err := s.indexAt(at)
	if err != nil {
		return Band{}, err
	}
	return s.bands[idx], nil
}

// PriceAt returns the unit price in force at at.
func (s *Schedule) PriceAt(at civiltime.Instant) (float64, error) {
	idx, err := s.indexAt(at)
	if err != nil {
		return 0, err
	}
	return s.bands[idx].PricePerKWh, nil
}

func (s *Schedule) indexAt(at civiltime.Instant) (int, error) {
	if at.IsZero() {
		return -1, &civiltime.TimestampError{Input: "zero instant", Reason: "instant was never resolved"}
	}

	tod := at.TimeOfDay()
	for i, b := range s.bands {
		if b.Contains(tod) {
			return i, nil
		}
	}
	return -1, &LookupError{At: at}
}
