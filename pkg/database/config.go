package database

import (
	"fmt"
	"time"
)

const (
	dataTablePrefix = "t_"

	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverDynamoDB = "dynamodb"
)

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type DynamoDBConfig struct {
	TablePrefix string `mapstructure:"tablePrefix"`
	Endpoint    string `mapstructure:"endpoint"` // local DynamoDB or localstack
}

func (d DynamoDBConfig) InvitesTable() string {
	return d.TablePrefix + "_invites"
}

func (d DynamoDBConfig) UsersTable() string {
	return d.TablePrefix + "_users"
}

type Database struct {
	// Driver selects the storage backend: sqlite, mysql or dynamodb.
	Driver       string `mapstructure:"driver"`
	OutPut       bool   `mapstructure:"output"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxLifetime  int    `mapstructure:"maxLifeTime"`
	MaxIdleTime  int    `mapstructure:"maxIdleTime"`

	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
}

func (d *Database) SetDefaults() {
	if d.Driver == "" {
		d.Driver = DriverSQLite
	}
	if d.SQLite.Path == "" {
		d.SQLite.Path = "data/invitekit.db"
	}
	if d.MySQL.Port == "" {
		d.MySQL.Port = "3306"
	}
	if d.DynamoDB.TablePrefix == "" {
		d.DynamoDB.TablePrefix = "kiro_invite"
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = 20
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = 5
	}
}

func (d *Database) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	case DriverMySQL:
		if d.MySQL.Host == "" || d.MySQL.User == "" || d.MySQL.DBName == "" {
			return fmt.Errorf("database.mysql host, user and dbname are required")
		}
	case DriverDynamoDB:
		if d.DynamoDB.TablePrefix == "" {
			return fmt.Errorf("database.dynamodb.tablePrefix is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
	return nil
}

func GetConnMaxLifetime(maxLifetime int) time.Duration {
	if maxLifetime > 0 {
		return time.Duration(maxLifetime) * time.Second
	}
	return 300 * time.Second
}

func GetConnMaxIdleTime(maxIdleTime int) time.Duration {
	if maxIdleTime > 0 {
		return time.Duration(maxIdleTime) * time.Second
	}
	return 60 * time.Second
}

func buildMySQLDSN(c MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
