package database

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	SlowThresholdMs    int
	// Writer gorm 日志输出；为空时写 stdout
	Writer *log.Logger
}

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

func NewGorm(o Opts) (*gorm.DB, error) {
	w := o.Writer
	if w == nil {
		w = log.New(os.Stdout, "", log.LstdFlags)
	}

	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		w.Println("[db] final mysql dsn =", maskDSN(dsn))
		dial = mysql.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(o.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	lvl := logger.Warn
	switch o.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	slow := 200 * time.Millisecond
	if o.SlowThresholdMs > 0 {
		slow = time.Duration(o.SlowThresholdMs) * time.Millisecond
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.New(w, logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true, // 未找到属于业务分支
		}),
		// 唯一/外键冲突翻译成 gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}
	db = db.
		Session(&gorm.Session{
			PrepareStmt:            true, // 预编译缓存，提高 QPS
			SkipDefaultTransaction: true, // 只在需要时手动开 Tx
		})
	return db, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func maskDSN(dsn string) string {
	masked := dsn
	if at := strings.Index(masked, "@"); at > 0 {
		if colon := strings.Index(masked[:at], ":"); colon > 0 {
			masked = masked[:colon+1] + "****" + masked[at:]
		}
	}
	return masked
}

// jdbc 专用参数，go-sql-driver 不认识
var jdbcOnlyParams = []string{"useUnicode", "zeroDateTimeBehavior", "characterEncoding", "useSSL", "serverTimezone"}

// normalizeMySQLDSN 把 mysql:// / jdbc:mysql:// 形式转换为 go-sql-driver 的 user:pass@tcp(host)/db?...；
// 已经是 driver 格式的 DSN 原样返回
func normalizeMySQLDSN(input, userOverride, passOverride string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in // 交给驱动报错
	}

	q := u.Query()
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	user = firstNonEmpty(userOverride, q.Get("user"), user)
	pass = firstNonEmpty(passOverride, q.Get("password"), pass)
	q.Del("user")
	q.Del("password")

	if q.Get("charset") == "" {
		q.Set("charset", firstNonEmpty(q.Get("characterEncoding"), "utf8mb4"))
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if tz := q.Get("serverTimezone"); tz != "" {
		q.Set("loc", tz)
	}
	if v := strings.ToLower(q.Get("useSSL")); v != "" {
		switch v {
		case "true", "1":
			q.Set("tls", "true")
		case "skip-verify", "preferred":
			q.Set("tls", v)
		default:
			q.Set("tls", "false")
		}
	}
	for _, k := range jdbcOnlyParams {
		q.Del(k)
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
