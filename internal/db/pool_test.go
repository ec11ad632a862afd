package db

import (
	"testing"

	"gorm.io/gorm/logger"
)

func TestDsnWithSearchPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "url without query",
			dsn:  "postgres://recorte:pw@localhost:5432/recorte",
			want: "postgres://recorte:pw@localhost:5432/recorte?search_path=clip,public",
		},
		{
			name: "url with query",
			dsn:  "postgres://localhost/recorte?sslmode=disable",
			want: "postgres://localhost/recorte?sslmode=disable&search_path=clip,public",
		},
		{
			name: "key value dsn",
			dsn:  "host=localhost dbname=recorte",
			want: "host=localhost dbname=recorte search_path=clip,public",
		},
		{
			name: "explicit search path wins",
			dsn:  "postgres://localhost/recorte?search_path=other",
			want: "postgres://localhost/recorte?search_path=other",
		},
		{
			name: "empty stays empty",
			dsn:  "   ",
			want: "",
		},
	}
	for _, tc := range cases {
		if got := dsnWithSearchPath(tc.dsn); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestResolveGormLogLevel(t *testing.T) {
	t.Parallel()

	if got := resolveGormLogLevel("debug", "production"); got != logger.Info {
		t.Fatalf("debug should map to gorm info, got %v", got)
	}
	if got := resolveGormLogLevel("", "production"); got != logger.Warn {
		t.Fatalf("empty level should map to warn, got %v", got)
	}
	if got := resolveGormLogLevel("bogus", "local"); got != logger.Warn {
		t.Fatalf("unknown level in local env should map to warn, got %v", got)
	}
	if got := resolveGormLogLevel("bogus", "production"); got != logger.Error {
		t.Fatalf("unknown level in production should map to error, got %v", got)
	}
}
