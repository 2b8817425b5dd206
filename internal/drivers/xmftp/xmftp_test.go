package xmftp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ruitoque/fronteras/internal/inventory"
	"github.com/ruitoque/fronteras/internal/models"
	"github.com/ruitoque/fronteras/internal/staging"
)

type fakeSession struct {
	files   map[string][]byte
	listErr error
	listed  string
	quit    bool
}

func (f *fakeSession) NameList(dir string) ([]string, error) {
	f.listed = dir
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []string
	for p := range f.files {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeSession) Retr(p string) (io.ReadCloser, error) {
	data, ok := f.files[p]
	if !ok {
		return nil, errors.New("550 file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeSession) Quit() error {
	f.quit = true
	return nil
}

func newTestClient(fake *fakeSession, dialErr error) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c := New(Config{Host: "ftp.test"}, logger)
	c.dial = func(ctx context.Context, cfg Config) (session, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return fake, nil
	}
	return c
}

func TestMonthDir(t *testing.T) {
	got := MonthDir(DefaultBaseDir, models.Period{Year: 2025, Month: 3})
	if want := "/INFORMACION_XM/USUARIOSK/RTQC/sic/comercia/2025-03"; got != want {
		t.Errorf("MonthDir = %q, want %q", got, want)
	}
}

func TestClientListAndRetrieve(t *testing.T) {
	ctx := context.Background()
	dir := DefaultBaseDir + "/2025-03"
	fake := &fakeSession{files: map[string][]byte{
		dir + "/tfroc0301.TxR": []byte("b"),
		dir + "/aenc0301.TxR":  []byte("a"),
	}}
	c := newTestClient(fake, nil)

	if _, err := c.List(ctx, models.Period{Year: 2025, Month: 3}); !errors.Is(err, inventory.ErrNotConnected) {
		t.Fatalf("List before Connect: err = %v", err)
	}
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	names, err := c.List(ctx, models.Period{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"aenc0301.TxR", "tfroc0301.TxR"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if fake.listed != dir {
		t.Errorf("listed %q, want %q", fake.listed, dir)
	}

	data, err := c.Retrieve(ctx, "aenc0301.TxR")
	if err != nil || string(data) != "a" {
		t.Errorf("Retrieve = %q, %v", data, err)
	}
	if _, err := c.Retrieve(ctx, "aenc0399.TxR"); err == nil {
		t.Errorf("expected error for missing file")
	}

	if err := c.Close(); err != nil || !fake.quit {
		t.Errorf("Close: err=%v quit=%v", err, fake.quit)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestClientConnectError(t *testing.T) {
	c := newTestClient(nil, errors.New("connection refused"))
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	if _, err := c.Retrieve(context.Background(), "x"); !errors.Is(err, inventory.ErrNotConnected) {
		t.Errorf("Retrieve after failed connect: err = %v", err)
	}
}

func TestClientListUnpublishedMonth(t *testing.T) {
	ctx := context.Background()
	period := models.Period{Year: 2025, Month: 4}

	tests := []struct {
		name    string
		listErr error
		wantErr bool
	}{
		{"missing directory", &textproto.Error{Code: 550, Msg: "No such file or directory"}, false},
		{"wrapped missing directory", fmt.Errorf("nlst: %w", &textproto.Error{Code: 550, Msg: "No such file or directory"}), false},
		{"other reply", &textproto.Error{Code: 421, Msg: "Service not available"}, true},
		{"network error", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeSession{listErr: tt.listErr}, nil)
			if err := c.Connect(ctx); err != nil {
				t.Fatalf("Connect: %v", err)
			}
			names, err := c.List(ctx, period)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", names)
				}
				return
			}
			if err != nil || len(names) != 0 {
				t.Fatalf("List = %v, %v; want empty without error", names, err)
			}

			logger := logrus.New()
			logger.SetLevel(logrus.PanicLevel)
			reconciler := staging.NewReconciler(inventory.NewMemoryStore(), inventory.Layout{}, logger)
			plan, err := reconciler.PlanFetch(ctx, c, period)
			if err != nil || len(plan) != 0 {
				t.Errorf("PlanFetch = %v, %v; want empty plan", plan, err)
			}
		})
	}
}
