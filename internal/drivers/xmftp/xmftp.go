// Package xmftp retrieves vendor files from the market operator FTP server
// over explicit TLS.
package xmftp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
)

const (
	DefaultPort    = 210
	DefaultBaseDir = "/INFORMACION_XM/USUARIOSK/RTQC/sic/comercia"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string

	// BaseDir holds one {YYYY}-{MM} directory per period.
	BaseDir string
	Timeout time.Duration

	InsecureSkipVerify bool
}

// session is the subset of an FTP connection the client uses.
type session interface {
	NameList(path string) ([]string, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type dialFunc func(ctx context.Context, cfg Config) (session, error)

// Client implements inventory.Source. It is not safe for concurrent use.
type Client struct {
	cfg    Config
	dial   dialFunc
	conn   session
	dir    string
	logger *logrus.Entry
}

var _ inventory.Source = (*Client)(nil)

func New(cfg Config, logger *logrus.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:    cfg,
		dial:   dialTLS,
		logger: logger.WithFields(logrus.Fields{"component": "xmftp", "host": cfg.Host}),
	}
}

// MonthDir returns the remote directory of a period.
func MonthDir(base string, p models.Period) string {
	return path.Join(base, p.String())
}

func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.dial(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("ftp connect %s: %w", c.cfg.Host, err)
	}
	c.conn = conn
	c.logger.Info("connected")
	return nil
}

// List returns the file names of the period directory and makes it the
// directory used by Retrieve.
func (c *Client) List(ctx context.Context, period models.Period) ([]string, error) {
	if c.conn == nil {
		return nil, inventory.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := MonthDir(c.cfg.BaseDir, period)
	entries, err := c.conn.NameList(dir)
	if isUnavailable(err) {
		// The vendor creates the month directory with its first publication.
		c.dir = dir
		c.logger.WithField("dir", dir).Info("month directory not published yet")
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ftp list %s: %w", dir, err)
	}
	c.dir = dir

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name := path.Base(e); name != "." && name != ".." && name != "/" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	c.logger.WithFields(logrus.Fields{"dir": dir, "files": len(names)}).Debug("listed")
	return names, nil
}

func (c *Client) Retrieve(ctx context.Context, name string) ([]byte, error) {
	if c.conn == nil {
		return nil, inventory.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	remote := path.Join(c.dir, name)
	r, err := c.conn.Retr(remote)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", remote, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ftp read %s: %w", remote, err)
	}
	return data, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	c.dir = ""
	return err
}

// isUnavailable reports a 550 reply, which the server sends for a missing
// directory.
func isUnavailable(err error) bool {
	var perr *textproto.Error
	return errors.As(err, &perr) && perr.Code == ftp.StatusFileUnavailable
}

type ftpSession struct {
	*ftp.ServerConn
}

func (s ftpSession) Retr(p string) (io.ReadCloser, error) {
	resp, err := s.ServerConn.Retr(p)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// dialTLS opens an explicit TLS session. The library negotiates PBSZ 0 and
// PROT P at login so data channels are protected too.
func dialTLS(ctx context.Context, cfg Config) (session, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(cfg.Timeout),
		ftp.DialWithExplicitTLS(&tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login: %w", err)
	}
	return ftpSession{conn}, nil
}
