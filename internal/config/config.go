package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          int
	DataPath      string
	DBPath        string
	UploadPath    string
	OutputPath    string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	CORSOrigins   []string
	// ProbeURL is polled to detect connectivity to the translation APIs.
	ProbeURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	// JWT secret: require explicit setting or generate random per process.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatal().Err(err).Msg("failed to generate random JWT secret")
		}
		jwtSecret = hex.EncodeToString(b)
		log.Warn().Msg("JWT_SECRET not set, using a random secret; sessions will not survive restarts")
	}

	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:          port,
		DataPath:      dataPath,
		DBPath:        getEnv("DB_PATH", dataPath+"/srtflow.db"),
		UploadPath:    getEnv("UPLOAD_PATH", dataPath+"/uploads"),
		OutputPath:    getEnv("OUTPUT_PATH", dataPath+"/output"),
		JWTSecret:     jwtSecret,
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		CORSOrigins:   corsOrigins,
		ProbeURL:      getEnv("CONNECTIVITY_PROBE_URL", "https://generativelanguage.googleapis.com"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
