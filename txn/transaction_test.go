package txn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-owfs/errs"
	"github.com/arloliu/go-owfs/txn"
)

func TestNewReadBlock_Layout(t *testing.T) {
	tx, err := txn.NewReadBlock(testDialect, 0xE000, 32)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x14, 0x00, 0xE0, 32}, tx.Frame)
	assert.Equal(t, 32, tx.ReplyLen)
	assert.Nil(t, tx.Confirm)
	require.NoError(t, tx.Validate())
}

func TestNewWriteBlock_Layout(t *testing.T) {
	tx, err := txn.NewWriteBlock(testDialect, 0x0030, []byte{0x7F, 0x01})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x15, 0x30, 0x00, 2, 0x7F, 0x01}, tx.Frame)
	assert.Equal(t, 0, tx.ReplyLen)
	require.NotNil(t, tx.Confirm)
	assert.Equal(t, byte(0xBC), *tx.Confirm)
	require.NoError(t, tx.Validate())
}

func TestNewExtended_Layout(t *testing.T) {
	tx, err := txn.NewExtended(testDialect, []byte{0xBA, 1, 2, 3}, 2*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x13, 3, 0xBA, 1, 2, 3}, tx.Frame)
	assert.Equal(t, 2*time.Millisecond, tx.Settle)
	require.NotNil(t, tx.Confirm)
	require.NoError(t, tx.Validate())

	full := make([]byte, txn.MaxExtendedPayload)
	tx, err = txn.NewExtended(testDialect, full, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), tx.Frame[1])
}

func TestNewEraseAddress_Layout(t *testing.T) {
	tx, err := txn.NewEraseAddress(testDialect, 0xE200)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x16, 0x00, 0xE2}, tx.Frame)
	require.NotNil(t, tx.Confirm)
}

func TestNewQuery_Layout(t *testing.T) {
	tx := txn.NewQuery(testDialect.QueryVersion)
	assert.Equal(t, []byte{0x11}, tx.Frame)
	assert.Equal(t, 2, tx.ReplyLen)
}

func TestBuilders_InvalidArguments(t *testing.T) {
	_, err := txn.NewReadBlock(testDialect, -1, 1)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewReadBlock(testDialect, 0x10000, 1)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewReadBlock(testDialect, 0, 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewReadBlock(testDialect, 0, 256)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewWriteBlock(testDialect, 0, nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewWriteBlock(testDialect, 0, make([]byte, 256))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewExtended(testDialect, nil, 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewExtended(testDialect, make([]byte, txn.MaxExtendedPayload+1), 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = txn.NewEraseAddress(testDialect, 0x10000)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestValidate_LengthFieldMismatch(t *testing.T) {
	tx, err := txn.NewWriteBlock(testDialect, 0, []byte{1, 2, 3})
	require.NoError(t, err)
	tx.Frame = tx.Frame[:len(tx.Frame)-1]
	require.ErrorIs(t, tx.Validate(), errs.ErrInvalidArgument)

	tx, err = txn.NewExtended(testDialect, []byte{1, 2}, 0)
	require.NoError(t, err)
	tx.Frame = append(tx.Frame, 0)
	require.ErrorIs(t, tx.Validate(), errs.ErrInvalidArgument)

	tx, err = txn.NewReadBlock(testDialect, 0, 4)
	require.NoError(t, err)
	tx.ReplyLen = 5
	require.ErrorIs(t, tx.Validate(), errs.ErrInvalidArgument)

	require.ErrorIs(t, (&txn.Transaction{Op: "x"}).Validate(), errs.ErrInvalidArgument)
}
