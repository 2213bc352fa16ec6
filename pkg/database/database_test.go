// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    Database
		wantErr bool
	}{
		{"sqlite defaults", Database{}, false},
		{"mysql missing host", Database{Driver: DriverMySQL}, true},
		{"mysql complete", Database{Driver: DriverMySQL, MySQL: MySQLConfig{Host: "db", User: "u", DBName: "invites"}}, false},
		{"dynamodb defaults", Database{Driver: DriverDynamoDB}, false},
		{"unknown", Database{Driver: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := tt.conf
			conf.SetDefaults()
			err := conf.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDynamoDBConfig_Tables(t *testing.T) {
	conf := Database{Driver: DriverDynamoDB}
	conf.SetDefaults()

	assert.Equal(t, "kiro_invite_invites", conf.DynamoDB.InvitesTable())
	assert.Equal(t, "kiro_invite_users", conf.DynamoDB.UsersTable())
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn := buildMySQLDSN(MySQLConfig{Host: "db", Port: "3306", User: "root", Password: "pw", DBName: "invites"})
	assert.Equal(t, "root:pw@tcp(db:3306)/invites?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}

func TestNewManager_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	m, err := NewManager(Database{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: path}})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, DriverSQLite, m.Driver())
	var one int
	require.NoError(t, NewDatabaseAdapter(m).Database().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.FileExists(t, path)
}

func TestNewManager_RejectsDynamoDB(t *testing.T) {
	_, err := NewManager(Database{Driver: DriverDynamoDB})
	assert.Error(t, err)
}
