package negotiation

import (
	"testing"

	"github.com/wangpengwen/payid/internal/domain"
)

func record(id, network, environment string) domain.AddressRecord {
	kind := domain.CryptoAddress
	if network == "ach" {
		kind = domain.AchAddress
	}
	return domain.AddressRecord{ID: id, PaymentNetwork: network, Environment: environment, DetailsKind: kind}
}

func mustRank(t *testing.T, tokens ...string) []AcceptedMediaType {
	t.Helper()
	ranked, err := Rank(tokens)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	return ranked
}

func TestSelect(t *testing.T) {
	records := []domain.AddressRecord{
		record("1", "xrpl", "testnet"),
		record("2", "btc", "mainnet"),
		record("3", "ach", ""),
		record("4", "xrpl", "mainnet"),
	}

	tests := []struct {
		name       string
		tokens     []string
		wantID     string
		wantAccept string
		wantFound  bool
	}{
		{
			name:       "exact network and environment",
			tokens:     []string{"application/btc-mainnet+json"},
			wantID:     "2",
			wantAccept: "application/btc-mainnet+json",
			wantFound:  true,
		},
		{
			name:       "first satisfiable preference wins even at lower quality",
			tokens:     []string{"application/eth-mainnet+json", "application/xrpl-mainnet+json;q=0.1"},
			wantID:     "4",
			wantAccept: "application/xrpl-mainnet+json",
			wantFound:  true,
		},
		{
			name:       "preference order dominates record order",
			tokens:     []string{"application/xrpl-mainnet+json", "application/xrpl-testnet+json;q=0.5"},
			wantID:     "4",
			wantAccept: "application/xrpl-mainnet+json",
			wantFound:  true,
		},
		{
			name:       "wildcard environment takes first record of the network",
			tokens:     []string{"application/xrpl+json"},
			wantID:     "1",
			wantAccept: "application/xrpl+json",
			wantFound:  true,
		},
		{
			name:       "wildcard matches record without environment",
			tokens:     []string{"application/ach+json"},
			wantID:     "3",
			wantAccept: "application/ach+json",
			wantFound:  true,
		},
		{
			name:      "concrete environment does not match record without environment",
			tokens:    []string{"application/ach-mainnet+json"},
			wantFound: false,
		},
		{
			name:      "no preference matches",
			tokens:    []string{"application/eth-mainnet+json", "application/btc-testnet+json"},
			wantFound: false,
		},
		{
			name:      "empty preferences never match",
			tokens:    nil,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, found := Select(records, mustRank(t, tt.tokens...))
			if found != tt.wantFound {
				t.Fatalf("expected found=%t, got %t", tt.wantFound, found)
			}
			if !found {
				return
			}
			if match.Record.ID != tt.wantID {
				t.Fatalf("expected record %s, got %s", tt.wantID, match.Record.ID)
			}
			if match.AcceptType.MediaType != tt.wantAccept {
				t.Fatalf("expected accept type %s, got %s", tt.wantAccept, match.AcceptType.MediaType)
			}
			if match.AcceptType.PaymentNetwork != match.Record.PaymentNetwork {
				t.Fatalf("matched network mismatch: %s vs %s", match.AcceptType.PaymentNetwork, match.Record.PaymentNetwork)
			}
			if !match.AcceptType.AnyEnvironment() && match.AcceptType.Environment != match.Record.Environment {
				t.Fatalf("matched environment mismatch: %s vs %s", match.AcceptType.Environment, match.Record.Environment)
			}
			if len(match.Records) != 1 {
				t.Fatalf("expected a single matched record, got %d", len(match.Records))
			}
		})
	}
}

func TestSelect_OnlyLowerPreferenceAvailable(t *testing.T) {
	records := []domain.AddressRecord{record("t", "xrpl", "testnet")}

	match, found := Select(records, mustRank(t,
		"application/xrpl-testnet+json;q=0.1",
		"application/xrpl-mainnet+json",
	))
	if !found {
		t.Fatal("expected the testnet record to match")
	}
	if match.Record.ID != "t" || match.AcceptType.Environment != "testnet" {
		t.Fatalf("unexpected match %+v", match)
	}
}

func TestSelect_DuplicateRecordsPickFirst(t *testing.T) {
	records := []domain.AddressRecord{
		record("older", "xrpl", "mainnet"),
		record("newer", "xrpl", "mainnet"),
	}

	match, found := Select(records, mustRank(t, "application/xrpl-mainnet+json"))
	if !found || match.Record.ID != "older" {
		t.Fatalf("expected first stored record, got %+v (found=%t)", match.Record, found)
	}
}

func TestSelect_AllAddresses(t *testing.T) {
	records := []domain.AddressRecord{
		record("1", "xrpl", "testnet"),
		record("2", "btc", "mainnet"),
		record("3", "xrpl", "mainnet"),
	}

	t.Run("every record", func(t *testing.T) {
		match, found := Select(records, mustRank(t, "application/payid+json"))
		if !found {
			t.Fatal("expected all addresses to match")
		}
		if len(match.Records) != 3 || match.Record.ID != "1" {
			t.Fatalf("unexpected match %+v", match)
		}
	})

	t.Run("filtered by environment", func(t *testing.T) {
		match, found := Select(records, mustRank(t, "application/payid-mainnet+json"))
		if !found {
			t.Fatal("expected mainnet addresses to match")
		}
		if len(match.Records) != 2 || match.Records[0].ID != "2" || match.Records[1].ID != "3" {
			t.Fatalf("unexpected match %+v", match.Records)
		}
	})

	t.Run("bare json", func(t *testing.T) {
		match, found := Select(records, mustRank(t, "application/json"))
		if !found || match.AcceptType.MediaType != "application/json" || len(match.Records) != 3 {
			t.Fatalf("unexpected match %+v (found=%t)", match, found)
		}
	})

	t.Run("no records", func(t *testing.T) {
		if _, found := Select(nil, mustRank(t, "application/payid+json")); found {
			t.Fatal("expected no match without records")
		}
	})
}
