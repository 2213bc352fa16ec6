package database

import "gorm.io/gorm"

type IDatabase interface {
	// Database returns the underlying *gorm.DB
	Database() *gorm.DB
}

type databaseAdapter struct {
	manager Manager
}

func NewDatabaseAdapter(manager Manager) IDatabase {
	return &databaseAdapter{manager: manager}
}

func (d *databaseAdapter) Database() *gorm.DB {
	return d.manager.DB()
}
