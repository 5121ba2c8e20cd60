package domain

import (
	"sort"
	"testing"
)

func TestParseBatchKeyRoundTrip(t *testing.T) {
	cases := []struct {
		raw  string
		want BatchKey
	}{
		{"7", NumericBatch(7)},
		{"1", NumericBatch(1)},
		{"INDIVIDUAL", IndividualBatch()},
		{"individual", IndividualBatch()},
		{"SPECIAL", SpecialBatch()},
		{"ERR-2", ErrorBatch(2)},
		{"err-4", ErrorBatch(4)},
	}
	for _, tc := range cases {
		got := ParseBatchKey(tc.raw)
		if got != tc.want {
			t.Fatalf("ParseBatchKey(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseBatchKeyDefaultsToFirstBatch(t *testing.T) {
	for _, raw := range []string{"", "  ", "garbage", "0", "-3", "ERR-", "ERR-0"} {
		got := ParseBatchKey(raw)
		if got.Kind == BatchNumeric && got.Number == 1 {
			continue
		}
		if got.Kind == BatchError && got.Number == 1 {
			continue
		}
		t.Fatalf("ParseBatchKey(%q) = %+v, want a defaulted batch 1", raw, got)
	}
}

func TestBatchKeyString(t *testing.T) {
	if got := NumericBatch(12).String(); got != "12" {
		t.Fatalf("numeric encoding = %q", got)
	}
	if got := ErrorBatch(3).String(); got != "ERR-3" {
		t.Fatalf("error encoding = %q", got)
	}
	if got := IndividualBatch().String(); got != "INDIVIDUAL" {
		t.Fatalf("individual encoding = %q", got)
	}
	if got := SpecialBatch().String(); got != "SPECIAL" {
		t.Fatalf("special encoding = %q", got)
	}
}

func TestBatchKeyDisplayOrder(t *testing.T) {
	keys := []BatchKey{
		SpecialBatch(),
		NumericBatch(1),
		ErrorBatch(2),
		IndividualBatch(),
		NumericBatch(4),
		ErrorBatch(1),
		NumericBatch(3),
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	want := []BatchKey{
		NumericBatch(4), NumericBatch(3), NumericBatch(1),
		ErrorBatch(2), ErrorBatch(1),
		IndividualBatch(), SpecialBatch(),
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("position %d = %+v, want %+v", i, keys[i], want[i])
		}
	}
}

func TestBatchKeyValidate(t *testing.T) {
	if err := NumericBatch(0).Validate(); err == nil {
		t.Fatal("expected error for numeric batch 0")
	}
	if err := (BatchKey{Kind: "mystery"}).Validate(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if err := ErrorBatch(2).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := [][2]OrderStatus{
		{StatusPendingValidation, StatusCollecting},
		{StatusCollecting, StatusInProduction},
		{StatusInProduction, StatusDeliveredClub},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]OrderStatus{
		{StatusCollecting, StatusDeliveredClub},
		{StatusDeliveredClub, StatusCollecting},
		{StatusInProduction, StatusCollecting},
		{StatusPendingValidation, StatusInProduction},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
	if !StatusDeliveredClub.IsTerminal() {
		t.Fatal("delivered must be terminal")
	}
}

func TestVisibleStatusDerivedFromStatus(t *testing.T) {
	if VisibleStatus(StatusCollecting) != "Recopilando pedidos" {
		t.Fatalf("unexpected label %q", VisibleStatus(StatusCollecting))
	}
	if VisibleStatus(OrderStatus("weird")) != "weird" {
		t.Fatal("unknown status should fall back to the raw value")
	}
}

func TestInitialStatus(t *testing.T) {
	if InitialStatus(PaymentCash) != StatusPendingValidation {
		t.Fatal("cash orders must await validation")
	}
	if InitialStatus(PaymentCard) != StatusCollecting {
		t.Fatal("card orders start collecting")
	}
}

func TestClubCommissionRateFallbackChain(t *testing.T) {
	own := 0.15
	club := Club{CommissionPct: &own}
	if got := ClubCommissionRate(club, FinancialConfig{ClubCommissionPct: 0.12}); got != 0.15 {
		t.Fatalf("club rate should win, got %v", got)
	}
	if got := ClubCommissionRate(Club{}, FinancialConfig{ClubCommissionPct: 0.12}); got != 0.12 {
		t.Fatalf("global rate should apply, got %v", got)
	}
	if got := ClubCommissionRate(Club{}, FinancialConfig{}); got != DefaultClubCommissionPct {
		t.Fatalf("compiled-in default should apply, got %v", got)
	}
}
