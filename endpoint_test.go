package clusterstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"web-01.example.com", "http://web-01.example.com/status"},
		{"10.0.0.7:8080", "http://10.0.0.7:8080/status"},
		{"localhost", "http://localhost/status"},
		{"bad host", "http://bad host/status"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusURL(tt.host), "StatusURL(%q)", tt.host)
	}
}

func TestBuildEndpoints_PreservesOrderAndDuplicates(t *testing.T) {
	hosts := []string{"b.example.com", "a.example.com", "b.example.com"}

	eps := BuildEndpoints(hosts)

	require.Len(t, eps, 3)
	for i, h := range hosts {
		assert.Equal(t, h, eps[i].Host())
		assert.Equal(t, "http://"+h+"/status", eps[i].URL())
		assert.Equal(t, eps[i].URL(), eps[i].String())
	}
	assert.Equal(t, eps[0], eps[2])
}

func TestBuildEndpoints_Empty(t *testing.T) {
	assert.Empty(t, BuildEndpoints(nil))
	assert.Empty(t, BuildEndpoints([]string{}))
}

func TestNewEndpoint(t *testing.T) {
	ep := NewEndpoint("cache-3:9000")

	assert.Equal(t, "cache-3:9000", ep.Host())
	assert.Equal(t, "http://cache-3:9000/status", ep.URL())
}
