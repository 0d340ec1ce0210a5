package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"menuhub/internal/auth"
	"menuhub/internal/config"
	"menuhub/internal/utils/logger"

	"github.com/joho/godotenv"
)

func main() {
	var log = logger.New("authctl")
	log.Info("🔑 Starting password/token helper CLI")

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("❌ Failed to load configuration", err)
		os.Exit(1)
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:          cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		AbsoluteSession: cfg.JWT.AbsoluteSession,
	})
	if err != nil {
		log.Error("❌ Failed to initialize token codec", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("Enter 'h' to hash a password, 'v' to inspect a token, or 'q' to quit: ")
		choice, err := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		if choice == "q" || (err != nil && choice == "") {
			log.Info("👋 Exiting authctl")
			return
		}

		fmt.Print("Enter the string to process: ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch choice {
		case "h":
			hash, err := auth.HashPassword(input)
			if err != nil {
				log.Error("❌ Hashing failed", err)
				continue
			}
			log.Success("✅ Password hash: %s", hash)
		case "v":
			inspect(log, codec, input)
		default:
			log.Warn("⚠️ Invalid choice. Please enter 'h', 'v', or 'q'.")
		}
	}
}

// inspect prints the claims of a token and the time left in its window.
func inspect(log *logger.Logger, codec *auth.TokenCodec, token string) {
	claims, err := codec.Verify(token)
	if err != nil {
		log.Error("❌ Token rejected", err)
		return
	}
	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		log.Error("❌ Failed to encode claims", err)
		return
	}
	fmt.Println(string(out))
	if claims.ExpiresAt != nil {
		log.Success("✅ Token valid for another %s", time.Until(claims.ExpiresAt.Time).Round(time.Second))
	}
	if claims.OriginalIat > 0 {
		end := time.Unix(claims.OriginalIat, 0).Add(codec.AbsoluteSession())
		log.Info("Session window closes at %s", end.Format(time.RFC3339))
	}
}
