package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cognition-bio/cognition/logging"
	"github.com/cognition-bio/cognition/models"
)

var (
	DB        *gorm.DB
	JWTSecret []byte

	log = logging.New("config")
)

func ConnectDatabase() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", host, user, pass, name, port)
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	DB = database
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Session{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("host", host).Str("db", name).Msg("database connected")

	seedAdmin()
}

// seedAdmin creates the bootstrap admin account when ADMIN_PASSWORD is
// set and no admin exists yet. Without the variable no account is
// seeded; there is deliberately no built-in default password.
func seedAdmin() {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Warn().Msg("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return
	}
	var count int64
	DB.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return
	}
	admin := models.User{Username: "admin", Admin: true}
	if err := admin.SetPassword(password); err != nil {
		log.Error().Err(err).Msg("failed to hash admin password")
		return
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}
	log.Info().Msg("admin account created")
}

// LoadSecrets populates JWTSecret from the environment. A random
// secret is generated when unset, which invalidates tokens across
// restarts.
func LoadSecrets() {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		JWTSecret = []byte(secret)
		return
	}
	JWTSecret = make([]byte, 64)
	if _, err := rand.Read(JWTSecret); err != nil {
		log.Fatal().Err(err).Msg("failed to generate JWT secret")
	}
	log.Warn().Msg("JWT_SECRET not set, using an ephemeral secret")
}

func ListenAddr() string {
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

// ExecTimeout bounds every remote command. The console allows
// arbitrary commands, so remote hangs must not pin a session forever.
func ExecTimeout() time.Duration {
	if v := os.Getenv("HPC_EXEC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 2 * time.Minute
}

// SnapshotDir points at the local catalog fallback TSVs.
func SnapshotDir() string {
	if dir := os.Getenv("CATALOG_SNAPSHOT_DIR"); dir != "" {
		return dir
	}
	return "data"
}
