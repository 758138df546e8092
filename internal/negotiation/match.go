package negotiation

import "github.com/wangpengwen/payid/internal/domain"

// Match is the outcome of a successful Select.
type Match struct {
	AcceptType AcceptedMediaType
	// Record is the selected address. For an all-addresses preference it is
	// the first of Records.
	Record domain.AddressRecord
	// Records holds every matching address for an all-addresses preference
	// and only Record otherwise.
	Records []domain.AddressRecord
}

// Select walks the ranked preferences in order and returns the first one that
// any record satisfies. Preference order wins over record order; among
// records satisfying the same preference the earliest in records is chosen.
func Select(records []domain.AddressRecord, prefs []AcceptedMediaType) (Match, bool) {
	for _, pref := range prefs {
		if pref.AllAddresses() {
			if matched := filterEnvironment(records, pref); len(matched) > 0 {
				return Match{AcceptType: pref, Record: matched[0], Records: matched}, true
			}
			continue
		}

		for _, record := range records {
			if satisfies(pref, record) {
				return Match{AcceptType: pref, Record: record, Records: []domain.AddressRecord{record}}, true
			}
		}
	}
	return Match{}, false
}

func satisfies(pref AcceptedMediaType, record domain.AddressRecord) bool {
	if record.PaymentNetwork != pref.PaymentNetwork {
		return false
	}
	return pref.AnyEnvironment() || record.Environment == pref.Environment
}

func filterEnvironment(records []domain.AddressRecord, pref AcceptedMediaType) []domain.AddressRecord {
	if pref.AnyEnvironment() {
		return records
	}
	var matched []domain.AddressRecord
	for _, record := range records {
		if record.Environment == pref.Environment {
			matched = append(matched, record)
		}
	}
	return matched
}
