package aviation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMORASourceFetchAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("40,-74,4000,authoritative\n41,-75,6500\nnot,a,valid,row\n\n"))
	}))
	defer srv.Close()

	src := NewMORASource(srv.URL)
	require.Equal(t, "mora", src.Tag())

	raw, err := src.Fetch(context.Background())
	require.NoError(t, err)

	cells, err := src.Parse(raw)
	require.NoError(t, err)
	require.Len(t, cells, 2)
	require.Contains(t, cells, MORACell{SWLat: 40, SWLon: -74, FeetMSL: 4000, Source: "authoritative"})
	require.Contains(t, cells, MORACell{SWLat: 41, SWLon: -75, FeetMSL: 6500, Source: "authoritative"})
}

func TestMORASourceParseRejectsAllMalformed(t *testing.T) {
	src := NewMORASource("http://unused")
	_, err := src.Parse([]byte("garbage,line,here\n"))
	require.Error(t, err)
}

func TestMORASourceFetchPropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewMORASource(srv.URL)
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}
