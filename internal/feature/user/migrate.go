package user

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// mysql 默认排序规则（utf8mb4_0900_ai_ci 等）忽略大小写，email 要按存储原样区分大小写
const (
	mysqlTableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"
	mysqlEmailColumn  = "VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL"
)

// Migrate 建表/补字段；mysql 额外保证 email 列是二进制排序规则
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if tx.Dialector.Name() != "mysql" {
		return tx.AutoMigrate(&UserModel{})
	}

	if err := tx.Set("gorm:table_options", mysqlTableOptions).AutoMigrate(&UserModel{}); err != nil {
		return err
	}
	// 老表不会用到 table_options，单独检查列
	var coll string
	err := tx.Raw(`SELECT COLLATION_NAME FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = 'email'`,
		UserModel{}.TableName()).Scan(&coll).Error
	if err != nil {
		return fmt.Errorf("read email collation: %w", err)
	}
	if binaryCollation(coll) {
		return nil
	}
	return tx.Exec("ALTER TABLE " + UserModel{}.TableName() + " MODIFY email " + mysqlEmailColumn).Error
}

func binaryCollation(coll string) bool {
	return strings.HasSuffix(strings.ToLower(coll), "_bin")
}
