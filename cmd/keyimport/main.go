package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/betbot/gokalshi/kalshi/signing"
	"github.com/betbot/gokalshi/pkg/secretstore"
)

// keyimport loads a Kalshi API key pair into the encrypted badger store, so
// the server never needs the PEM file on disk at runtime.
func main() {
	_ = godotenv.Load()

	var (
		env       = flag.String("env", getenv("ENV", "demo"), "environment: demo or production")
		keyID     = flag.String("key-id", "", "API key id (default <ENV>_KEYID)")
		keyFile   = flag.String("key-file", "", "RSA private key PEM path (default <ENV>_KEYFILE)")
		dbPath    = flag.String("badger", getenv("GOKALSHI_SECRET_DB", "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv("GOKALSHI_SECRET_KEY", ""), "badger encryption key (32 bytes base64/hex)")
	)
	flag.Parse()

	environment := normalizeEnv(*env)
	if environment == "" {
		fatal(fmt.Errorf("env must be demo or production, got %q", *env))
	}

	prefix := strings.ToUpper(environment)
	if environment == "production" {
		prefix = "PROD"
	}
	if *keyID == "" {
		*keyID = os.Getenv(prefix + "_KEYID")
	}
	if *keyFile == "" {
		*keyFile = os.Getenv(prefix + "_KEYFILE")
	}
	if *keyID == "" || *keyFile == "" {
		fatal(fmt.Errorf("key id and key file are required: pass -key-id/-key-file or set %s_KEYID/%s_KEYFILE", prefix, prefix))
	}

	pemBytes, err := os.ReadFile(*keyFile)
	if err != nil {
		fatal(err)
	}
	// Parse before storing so a bad PEM is caught now, not at server start.
	if _, err := signing.NewSignerFromPEM(*keyID, pemBytes); err != nil {
		fatal(err)
	}

	encKey, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if encKey == nil {
		fatal(fmt.Errorf("secret key is required: set GOKALSHI_SECRET_KEY or pass -secret-key"))
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: encKey,
	})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	if err := ss.SetString(secretstore.KeyIDKey(environment), *keyID); err != nil {
		fatal(err)
	}
	if err := ss.SetString(secretstore.PrivateKeyKey(environment), string(pemBytes)); err != nil {
		fatal(err)
	}

	fmt.Fprintf(os.Stderr, "imported %s credentials into %s\n", environment, *dbPath)
}

func normalizeEnv(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "demo":
		return "demo"
	case "prod", "production":
		return "production"
	}
	return ""
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
