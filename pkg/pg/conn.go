package pg

import (
	"database/sql"
	"fmt"
)

// Config carries the connection settings for one postgres endpoint; the
// read and write sides of the ledger database each get their own.
type Config struct {
	User     string `env:"USER"`
	Host     string `env:"HOST"`
	Port     string `env:"PORT"`
	Password string `env:"PASSWORD"`
	Database string `env:"DBNAME"`
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Database, c.Port)
}

// newSqlConnection opens a plain database/sql handle, used by the goose
// migration runner which does not go through gorm.
func newSqlConnection(config Config) (*sql.DB, error) {
	return sql.Open("postgres", config.dsn())
}
