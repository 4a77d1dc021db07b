package truenas

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Middleware method names.
const (
	MethodLogin           = "auth.login"
	MethodLoginWithAPIKey = "auth.login_with_api_key"
	MethodSystemInfo      = "system.info"
	MethodPoolQuery       = "pool.query"
	MethodDatasetQuery    = "pool.dataset.query"
	MethodUserQuery       = "user.query"
	MethodSMBShareQuery   = "sharing.smb.query"
)

// LoginMethods are the calls whose params carry secrets. Protocol logs
// should redact them.
var LoginMethods = []string{MethodLogin, MethodLoginWithAPIKey}

// SystemInfo is the result of system.info.
type SystemInfo struct {
	Version       string    `mapstructure:"version"`
	Hostname      string    `mapstructure:"hostname"`
	Model         string    `mapstructure:"model"`
	Cores         int       `mapstructure:"cores"`
	PhysMem       int64     `mapstructure:"physmem"`
	UptimeSeconds float64   `mapstructure:"uptime_seconds"`
	Timezone      string    `mapstructure:"timezone"`
	LoadAvg       []float64 `mapstructure:"loadavg"`
}

// Pool is one entry of pool.query.
type Pool struct {
	ID      int    `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	GUID    string `mapstructure:"guid"`
	Path    string `mapstructure:"path"`
	Status  string `mapstructure:"status"`
	Healthy bool   `mapstructure:"healthy"`
	Size    int64  `mapstructure:"size"`
	Free    int64  `mapstructure:"free"`
}

// Property is a ZFS property as reported by pool.dataset.query.
type Property struct {
	Value    string `mapstructure:"value"`
	RawValue string `mapstructure:"rawvalue"`
}

// Dataset is one entry of pool.dataset.query.
type Dataset struct {
	ID         string   `mapstructure:"id"`
	Name       string   `mapstructure:"name"`
	Pool       string   `mapstructure:"pool"`
	Type       string   `mapstructure:"type"`
	Mountpoint string   `mapstructure:"mountpoint"`
	Used       Property `mapstructure:"used"`
	Available  Property `mapstructure:"available"`
}

// User is one entry of user.query.
type User struct {
	ID       int    `mapstructure:"id"`
	UID      int    `mapstructure:"uid"`
	Username string `mapstructure:"username"`
	FullName string `mapstructure:"full_name"`
	Email    string `mapstructure:"email"`
	Home     string `mapstructure:"home"`
	Shell    string `mapstructure:"shell"`
	Builtin  bool   `mapstructure:"builtin"`
	Locked   bool   `mapstructure:"locked"`
}

// SMBShare is one entry of sharing.smb.query.
type SMBShare struct {
	ID       int    `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Comment  string `mapstructure:"comment"`
	Enabled  bool   `mapstructure:"enabled"`
	ReadOnly bool   `mapstructure:"ro"`
}

// SystemInfo calls system.info.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.callInto(ctx, &info, MethodSystemInfo); err != nil {
		return nil, err
	}
	return &info, nil
}

// Pools calls pool.query.
func (c *Client) Pools(ctx context.Context) ([]Pool, error) {
	var pools []Pool
	if err := c.callInto(ctx, &pools, MethodPoolQuery); err != nil {
		return nil, err
	}
	return pools, nil
}

// PoolNames returns the names of all pools.
func (c *Client) PoolNames(ctx context.Context) ([]string, error) {
	pools, err := c.Pools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pools))
	for _, p := range pools {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// Datasets calls pool.dataset.query.
func (c *Client) Datasets(ctx context.Context) ([]Dataset, error) {
	var ds []Dataset
	if err := c.callInto(ctx, &ds, MethodDatasetQuery); err != nil {
		return nil, err
	}
	return ds, nil
}

// Users calls user.query.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.callInto(ctx, &users, MethodUserQuery); err != nil {
		return nil, err
	}
	return users, nil
}

// SMBShares calls sharing.smb.query.
func (c *Client) SMBShares(ctx context.Context) ([]SMBShare, error) {
	var shares []SMBShare
	if err := c.callInto(ctx, &shares, MethodSMBShareQuery); err != nil {
		return nil, err
	}
	return shares, nil
}

// Summary is the dashboard view: system info plus pools.
type Summary struct {
	Info  *SystemInfo
	Pools []Pool
}

// Summary fetches system info and pools concurrently. Both calls are
// outstanding on the connection at the same time.
func (c *Client) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := c.SystemInfo(gctx)
		s.Info = info
		return err
	})
	g.Go(func() error {
		pools, err := c.Pools(gctx)
		s.Pools = pools
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
