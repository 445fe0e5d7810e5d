package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWriteMode(t *testing.T) {
	for in, want := range map[string]WriteMode{
		"insert": WriteModeInsert,
		"":       WriteModeInsert,
		"UPDATE": WriteModeUpdate,
		"Delete": WriteModeDelete,
	} {
		got, err := ParseWriteMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWriteMode("upsert")
	assert.ErrorIs(t, err, ErrUnknownWriteMode)
	assert.Equal(t, "WriteMode(7)", WriteMode(7).String())
}

func TestParseEnums(t *testing.T) {
	kind, err := ParseEntityKind("tag")
	require.NoError(t, err)
	assert.Equal(t, KindVertex, kind)

	_, err = ParseEntityKind("hyperedge")
	assert.ErrorIs(t, err, ErrUnknownKind)

	vid, err := ParseVidType("INT64")
	require.NoError(t, err)
	assert.Equal(t, VidInt, vid)

	_, err = ParseVidType("bytes")
	assert.ErrorIs(t, err, ErrUnknownVidType)

	policy, err := ParsePolicy("HASH")
	require.NoError(t, err)
	assert.Equal(t, PolicyHash, policy)

	_, err = ParsePolicy("md5")
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	dt, err := ParseDataType("int32")
	require.NoError(t, err)
	assert.Equal(t, TypeInt, dt)

	_, err = ParseDataType("geography")
	assert.ErrorIs(t, err, ErrUnknownDataType)
}
