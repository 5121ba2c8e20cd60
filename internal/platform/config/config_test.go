package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"MERCH_FIREBASE_PROJECT_ID": "fem-dev",
		"MERCH_CLUB_JWT_SECRET":     "dev-secret",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "fem-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Events.ProjectID != "fem-dev" {
		t.Errorf("expected events project to default to firebase project, got %s", cfg.Events.ProjectID)
	}
	if cfg.Fees.ClubCommissionPct != defaultClubCommissionPct {
		t.Errorf("unexpected default club commission: %v", cfg.Fees.ClubCommissionPct)
	}
	if cfg.Fees.GatewayFixedFee != defaultGatewayFixedFeeCents {
		t.Errorf("unexpected default gateway fixed fee: %d", cfg.Fees.GatewayFixedFee)
	}
	if cfg.Mail.Collection != "mail" {
		t.Errorf("unexpected default mail collection: %s", cfg.Mail.Collection)
	}
	if cfg.ClubAuth.SessionTTL != defaultClubSessionTTL {
		t.Errorf("unexpected default session ttl: %s", cfg.ClubAuth.SessionTTL)
	}
	if cfg.Idempotency.Header != defaultIdempotencyHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != defaultIdempotencyTTL {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.Idempotency.TTL)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"MERCH_SERVER_PORT":                  "9090",
		"MERCH_SERVER_READ_TIMEOUT":          "20s",
		"MERCH_FIREBASE_PROJECT_ID":          "fem-prod",
		"MERCH_FIRESTORE_PROJECT_ID":         "fem-fire",
		"MERCH_STORAGE_IMAGES_BUCKET":        "fem-images",
		"MERCH_STRIPE_API_KEY":               "secret://stripe/api",
		"MERCH_CLUB_JWT_SECRET":              "sm://club/jwt",
		"MERCH_FEES_CLUB_COMMISSION_PCT":     "0.12",
		"MERCH_FEES_GATEWAY_FIXED_CENTS":     "30",
		"MERCH_IDEMPOTENCY_TTL":              "48h",
		"MERCH_IDEMPOTENCY_CLEANUP_INTERVAL": "30m",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		switch ref {
		case "secret://stripe/api":
			return "sk_live_123", nil
		case "secret://club/jwt":
			return "resolved-jwt-secret", nil
		}
		return "", errors.New("unknown ref")
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "fem-fire" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Stripe.APIKey != "sk_live_123" {
		t.Errorf("stripe key not resolved, got %s", cfg.Stripe.APIKey)
	}
	if cfg.ClubAuth.JWTSecret != "resolved-jwt-secret" {
		t.Errorf("jwt secret not resolved via sm:// alias, got %s", cfg.ClubAuth.JWTSecret)
	}
	if cfg.Fees.ClubCommissionPct != 0.12 {
		t.Errorf("unexpected club commission: %v", cfg.Fees.ClubCommissionPct)
	}
	if cfg.Fees.GatewayFixedFee != 30 {
		t.Errorf("unexpected gateway fixed fee: %d", cfg.Fees.GatewayFixedFee)
	}
	if cfg.Idempotency.TTL != 48*time.Hour {
		t.Errorf("unexpected idempotency ttl: %s", cfg.Idempotency.TTL)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validation.Fields()
	found := map[string]bool{}
	for _, field := range fields {
		found[field] = true
	}
	if !found["Firebase.ProjectID"] || !found["ClubAuth.JWTSecret"] {
		t.Errorf("expected missing firebase project and jwt secret, got %v", fields)
	}
}

func TestLoadSecretResolutionFailure(t *testing.T) {
	env := map[string]string{
		"MERCH_FIREBASE_PROJECT_ID": "fem-dev",
		"MERCH_CLUB_JWT_SECRET":     "secret://club/jwt",
	}
	resolver := SecretResolverFunc(func(context.Context, string) (string, error) {
		return "", errors.New("backend down")
	})

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err == nil {
		t.Fatal("expected secret error")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://club/jwt" {
		t.Errorf("unexpected ref: %s", secretErr.Ref)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "MERCH_FIREBASE_PROJECT_ID=fem-local\nexport MERCH_CLUB_JWT_SECRET=\"file-secret\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firebase.ProjectID != "fem-local" {
		t.Errorf("unexpected project from .env: %s", cfg.Firebase.ProjectID)
	}
	if cfg.ClubAuth.JWTSecret != "file-secret" {
		t.Errorf("unexpected jwt secret from .env: %s", cfg.ClubAuth.JWTSecret)
	}
}
