package connection

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// GORMConn scopes db to ctx and, when tx is set, routes every statement
// through that transaction. Services own the *sql.Tx; repositories stay gorm.
func GORMConn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	conn := db.WithContext(ctx)
	if tx != nil {
		conn.Statement.ConnPool = tx
	}
	return conn
}
