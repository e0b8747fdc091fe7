package cloudinary

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicID(t *testing.T) {
	require.Equal(t, "1a2b3c4d-dara-photo", buildPublicID("1a2b3c4d-dara-photo.png"))
	require.Equal(t, "grades-7A", buildPublicID("uploads/grades 7A.xlsx"))
	require.Contains(t, buildPublicID("***.pdf"), "upload-")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "sala"}, zerolog.New(io.Discard))
	require.Error(t, err)
}
