package models

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database named by databaseURL and migrates the schema.
// A mysql:// DSN is routed to the mysql driver, everything else is treated
// as a sqlite filename.
func Connect(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "mysql://") {
		dialector = mysql.Open(strings.TrimPrefix(databaseURL, "mysql://"))
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect database at %s: %w", databaseURL, err)
	}
	log.Info(fmt.Sprintf("Connected database at %s", databaseURL))

	err = db.AutoMigrate(
		&AnnotationSet{},
		&DatasetItem{},
		&File{},
		&ExternalAnnotationProject{},
		&ExternalAnnotationTask{},
	)
	if err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}
