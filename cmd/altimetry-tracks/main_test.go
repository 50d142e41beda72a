package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-altimetry"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(t.Context())
	return stdout.String(), err
}

func TestGranuleCmd(t *testing.T) {
	actual, err := execute(t, "granule",
		"ATL06_20200615003456_00120710_005_01.h5",
		"ATL06_20190102184312_00270305_005_01.h5",
	)
	assert.NoError(t, err)
	assert.Equal(t, ""+
		"ATL06_20200615003456_00120710_005_01.h5\t12\t2020-06-15\t7\n"+
		"ATL06_20190102184312_00270305_005_01.h5\t27\t2019-01-02\t3\n",
		actual)
}

func TestGranuleCmdMismatch(t *testing.T) {
	_, err := execute(t, "granule", "foo.txt")
	assert.IsError(t, err, altimetry.ErrPatternMismatch)
}

func TestFetchCmd(t *testing.T) {
	var mutex sync.Mutex
	var queries []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		queries = append(queries, r.URL.Query())
		mutex.Unlock()
		switch r.URL.Query().Get("beamName") {
		case "gt1l":
			_, _ = w.Write([]byte(`{"data":[{"date":"2020-06-15","beams":[{"lat_lon_elev":[[-75.1,-105.2,1001.5]]}]}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":[{"date":"2020-06-14","beams":[{"lat_lon_elev":[[-75.1,-105.2,1001.5]]}]}]}`))
		}
	}))
	defer server.Close()

	for _, tc := range []struct {
		name          string
		args          []string
		expected      string
		expectedTrack string
	}{
		{
			name: "granule_csv",
			args: []string{
				"--granule", "ATL06_20200615003456_00120710_005_01.h5",
				"--beams", "gt1l,gt2l",
			},
			expected:      "lat,lon,h,beam,cycle,time\n-75.1,-105.2,1001.5,gt1l,7,2020-06-15\n",
			expectedTrack: "12",
		},
		{
			name: "explicit_json",
			args: []string{
				"--date", "2020-06-15",
				"--track", "99",
				"--cycle", "3",
				"--beams", "gt1l",
				"--format", "json",
			},
			expected:      `[{"lat":-75.1,"lon":-105.2,"h":1001.5,"beam":"gt1l","cycle":"3","time":"2020-06-15"}]` + "\n",
			expectedTrack: "99",
		},
		{
			name: "granule_overridden",
			args: []string{
				"--granule", "ATL06_20200615003456_00120710_005_01.h5",
				"--track", "13",
				"--beams", "gt2l",
			},
			expected:      "lat,lon,h,beam,cycle,time\n",
			expectedTrack: "13",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mutex.Lock()
			queries = nil
			mutex.Unlock()

			args := append([]string{"fetch", "--base-url", server.URL, "--bbox", "-108.5,-75.5,-100,-74.25"}, tc.args...)
			actual, err := execute(t, args...)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)

			mutex.Lock()
			defer mutex.Unlock()
			for _, query := range queries {
				assert.Equal(t, tc.expectedTrack, query.Get("trackId"))
				assert.Equal(t, "2020-06-15", query.Get("startDate"))
				assert.Equal(t, "-108.5", query.Get("minx"))
			}
		})
	}
}

func TestFetchCmdErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	for _, tc := range []struct {
		name     string
		args     []string
		expected error
	}{
		{
			name:     "request_failed",
			args:     []string{"--date", "2020-06-15", "--track", "12", "--bbox", "0,0,1,1"},
			expected: altimetry.ErrRequestFailed,
		},
		{
			name:     "bad_granule",
			args:     []string{"--granule", "foo.txt", "--bbox", "0,0,1,1"},
			expected: altimetry.ErrPatternMismatch,
		},
		{
			name:     "missing_track",
			args:     []string{"--date", "2020-06-15", "--bbox", "0,0,1,1"},
			expected: altimetry.ErrInvalidRequest,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"fetch", "--base-url", server.URL}, tc.args...)
			_, err := execute(t, args...)
			assert.IsError(t, err, tc.expected)
		})
	}
}

func TestFetchCmdInvalidFlags(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{
			name: "missing_bbox",
			args: []string{"fetch", "--date", "2020-06-15", "--track", "12"},
		},
		{
			name: "bad_format",
			args: []string{"fetch", "--date", "2020-06-15", "--track", "12", "--bbox", "0,0,1,1", "--format", "xml"},
		},
		{
			name: "bad_timeout",
			args: []string{"fetch", "--date", "2020-06-15", "--track", "12", "--bbox", "0,0,1,1", "--timeout-seconds", "-1"},
		},
		{
			name: "bad_log_level",
			args: []string{"fetch", "--date", "2020-06-15", "--track", "12", "--bbox", "0,0,1,1", "--log-level", "loud"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestParseBBox(t *testing.T) {
	for _, tc := range []struct {
		s           string
		expected    altimetry.BBox
		expectedErr bool
	}{
		{
			s:        "-108.5,-75.5,-100,-74.25",
			expected: altimetry.BBox{MinX: -108.5, MinY: -75.5, MaxX: -100, MaxY: -74.25},
		},
		{
			s:        "1, 2, 3, 4",
			expected: altimetry.BBox{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4},
		},
		{
			s:           "1,2,3",
			expectedErr: true,
		},
		{
			s:           "1,2,3,x",
			expectedErr: true,
		},
	} {
		t.Run(tc.s, func(t *testing.T) {
			actual, err := parseBBox(tc.s)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("ALTIMETRY_BASE_URL", "http://example.com/api")
	t.Setenv("ALTIMETRY_TIMEOUT_SECONDS", "2.5")
	t.Setenv("ALTIMETRY_LOG_LEVEL", "debug")

	fetchCmd := newFetchCmd()
	fetchCmd.PersistentFlags().String("log-level", "warn", "")
	assert.NoError(t, fetchCmd.ParseFlags([]string{"--timeout-seconds", "5"}))

	cfg, err := loadConfig(fetchCmd)
	assert.NoError(t, err)
	assert.Equal(t, "http://example.com/api", cfg.BaseURL)
	assert.Equal(t, 5.0, cfg.TimeoutSeconds)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}
