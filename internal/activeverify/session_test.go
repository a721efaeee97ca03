package activeverify

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluateHappyPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	store := NewStore()
	now := time.Now()
	nonce := [16]byte{1, 2, 3}
	sess := store.Create("deadbeef", nonce, now, 30*time.Second)
	require.Equal(t, StateAwaitingResponse, sess.State)

	chainHead := [32]byte{9, 9, 9}
	responseTS := now.Add(2 * time.Second)
	signed := SignedFields(nonce, chainHead, responseTS, 64)
	sig := ed25519.Sign(priv, signed)

	resp := Response{
		NonceEcho:             nonce,
		ChainHeadHash:         chainHead,
		ResponseTS:            responseTS,
		CurrentIndex:          64,
		SignatureOverResponse: sig,
	}

	err = Evaluate(sess, resp, pub)
	require.NoError(t, err)
	require.Equal(t, StateEvaluating, sess.State)

	Complete(sess)
	require.Equal(t, StateComplete, sess.State)
}

func TestEvaluateNonceMismatch(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	store := NewStore()
	now := time.Now()
	sess := store.Create("id", [16]byte{1}, now, 30*time.Second)

	signed := SignedFields([16]byte{9}, [32]byte{}, now, 1)
	sig := ed25519.Sign(priv, signed)
	resp := Response{NonceEcho: [16]byte{9}, ResponseTS: now.Add(time.Second), SignatureOverResponse: sig}

	err := Evaluate(sess, resp, pub)
	require.Error(t, err)
	require.Equal(t, StateFailed, sess.State)
}

func TestEvaluateDeadlineExpired(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	store := NewStore()
	now := time.Now()
	nonce := [16]byte{4}
	sess := store.Create("id", nonce, now, 1*time.Second)

	resp := Response{NonceEcho: nonce, ResponseTS: now.Add(5 * time.Second)}
	err := Evaluate(sess, resp, pub)
	require.Error(t, err)
	require.Equal(t, StateFailed, sess.State)
	require.Equal(t, "deadline expired", sess.FailReason)
}

func TestEvaluateSignatureInvalid(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	store := NewStore()
	now := time.Now()
	nonce := [16]byte{7}
	sess := store.Create("id", nonce, now, 30*time.Second)

	resp := Response{NonceEcho: nonce, ResponseTS: now.Add(time.Second), SignatureOverResponse: []byte("garbage")}
	err := Evaluate(sess, resp, pub)
	require.Error(t, err)
	require.Equal(t, StateFailed, sess.State)
}

func TestStoreGetDelete(t *testing.T) {
	store := NewStore()
	sess := store.Create("id", [16]byte{1}, time.Now(), 0)
	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	require.Equal(t, sess.ID, got.ID)

	store.Delete(sess.ID)
	_, ok = store.Get(sess.ID)
	require.False(t, ok)
}
