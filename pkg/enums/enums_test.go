package enums

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "customer", want: RoleCustomer},
		{input: " Vendor ", want: RoleVendor},
		{input: "RIDER", want: RoleRider},
		{input: "admin", want: RoleAdmin},
		{input: "owner", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRole(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestThemeModeValidity(t *testing.T) {
	if !ThemeModeSystem.IsValid() {
		t.Fatal("system should be valid")
	}
	if ThemeMode("sepia").IsValid() {
		t.Fatal("sepia should be invalid")
	}
	if mode, err := ParseThemeMode("DARK"); err != nil || mode != ThemeModeDark {
		t.Fatalf("expected dark, got %s (%v)", mode, err)
	}
}

func TestParseCurrency(t *testing.T) {
	if c, err := ParseCurrency("usd"); err != nil || c != CurrencyUSD {
		t.Fatalf("expected USD, got %s (%v)", c, err)
	}
	if _, err := ParseCurrency("BTC"); err == nil {
		t.Fatal("expected unsupported currency error")
	}
}

func TestParsePaymentStatus(t *testing.T) {
	if s, err := ParsePaymentStatus("failed"); err != nil || s != PaymentStatusFailed {
		t.Fatalf("expected failed, got %s (%v)", s, err)
	}
	if _, err := ParsePaymentStatus("pending"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
