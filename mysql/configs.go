package mysql

import "fmt"

type Config struct {
	Connection Connection
}

type Connection struct {
	Host     string
	Port     string
	User     string
	Password string
	DbName   string

	// Optional DSN parameters
	Charset      string
	Loc          string
	TLS          string
	Timeout      string
	ReadTimeout  string
	WriteTimeout string
}

// dsn builds the go-sql-driver DSN the same way the rest of our database
// packages do: username:password@tcp(host:port)/dbname?param=value.
func (c Config) dsn() string {
	charset := c.Connection.Charset
	if charset == "" {
		charset = "utf8mb4"
	}

	loc := c.Connection.Loc
	if loc == "" {
		loc = "Local"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=%s",
		c.Connection.User,
		c.Connection.Password,
		c.Connection.Host,
		c.Connection.Port,
		c.Connection.DbName,
		charset,
		loc,
	)

	if c.Connection.TLS != "" {
		dsn += "&tls=" + c.Connection.TLS
	}
	if c.Connection.Timeout != "" {
		dsn += "&timeout=" + c.Connection.Timeout
	}
	if c.Connection.ReadTimeout != "" {
		dsn += "&readTimeout=" + c.Connection.ReadTimeout
	}
	if c.Connection.WriteTimeout != "" {
		dsn += "&writeTimeout=" + c.Connection.WriteTimeout
	}

	return dsn
}
