package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterminism(t *testing.T) {
	v := IRArray{IRObject{"op": IRString("move"), "x": IRInt(0), "y": IRInt(-1_000_000)}}

	d1, err := Digest(DomainPath, v)
	require.NoError(t, err)
	d2, err := Digest(DomainPath, v)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, DigestLength)
	assert.True(t, IsDigest(d1))
}

func TestDigestKeyOrderIndependent(t *testing.T) {
	a := IRObject{"x": IRInt(1), "y": IRInt(2)}
	b := IRObject{"y": IRInt(2), "x": IRInt(1)}

	da, err := Digest(DomainPath, a)
	require.NoError(t, err)
	db, err := Digest(DomainPath, b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestDigestChangesWithContent(t *testing.T) {
	da, err := Digest(DomainPath, IRArray{IRInt(1)})
	require.NoError(t, err)
	db, err := Digest(DomainPath, IRArray{IRInt(2)})
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`[1,2,3]`)
	assert.NotEqual(t, hashWithDomain(DomainPath, data), hashWithDomain(DomainLattice, data))

	// "foo" + 0x00 + "bar" differs from "foob" + 0x00 + "ar".
	assert.NotEqual(t, hashWithDomain("foo", []byte("bar")), hashWithDomain("foob", []byte("ar")))
}

func TestDigestRejectsInvalidValues(t *testing.T) {
	_, err := Digest(DomainPath, IRArray{nil})
	assert.Error(t, err)
}

func TestIsDigest(t *testing.T) {
	d := hashWithDomain(DomainPath, nil)
	assert.True(t, IsDigest(d))
	assert.False(t, IsDigest(d[:63]))
	assert.False(t, IsDigest("Z"+d[1:]))
	assert.False(t, IsDigest(""))
}
