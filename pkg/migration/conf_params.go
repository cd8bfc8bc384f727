package migration

import "github.com/go-ini/ini"

// confParams abstracts parameters loaded from ini file. Will provide defaults
// when receiver is nil or parameter is not defined.
type confParams struct {
	sourcePath                    string
	host, database, user, sslMode string
	password                      *string
	port                          int
}

// N.B. There is no default for the source path, it must be given.
func (c *confParams) GetSourcePath() string {
	if c == nil {
		return ""
	}

	return c.sourcePath
}

func (c *confParams) GetHost() string {
	if c == nil || c.host == "" {
		return defaultHost
	}

	return c.host
}

func (c *confParams) GetDatabase() string {
	if c == nil || c.database == "" {
		return defaultDatabase
	}

	return c.database
}

func (c *confParams) GetUser() string {
	if c == nil || c.user == "" {
		return defaultUsername
	}

	return c.user
}

func (c *confParams) GetPassword() string {
	if c == nil || c.password == nil {
		return defaultPassword
	}

	return *c.password
}

func (c *confParams) GetSSLMode() string {
	if c == nil || c.sslMode == "" {
		return defaultSSLMode
	}

	return c.sslMode
}

// N.B. There is no single default port, it depends on the target engine.
func (c *confParams) GetPort() int {
	if c == nil {
		return 0
	}

	return c.port
}

// newConfParams attempts to load a confParams struct from a path to an ini file.
func newConfParams(confFilePath string) (*confParams, error) {
	confParams := &confParams{}

	if confFilePath == "" {
		return confParams, nil
	}

	creds, err := ini.Load(confFilePath)
	if err != nil {
		return nil, err
	}

	if creds.HasSection("source") {
		confParams.sourcePath = creds.Section("source").Key("path").String()
	}

	if creds.HasSection("target") {
		targetSection := creds.Section("target")
		confParams.host = targetSection.Key("host").String()
		confParams.database = targetSection.Key("database").String()
		confParams.user = targetSection.Key("user").String()
		confParams.sslMode = targetSection.Key("ssl-mode").String()
		confParams.port = targetSection.Key("port").MustInt()

		if targetSection.HasKey("password") {
			pw := targetSection.Key("password").String()
			confParams.password = &pw
		}
	}

	return confParams, nil
}
