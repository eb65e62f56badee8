package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchDistinguishesAbsentNullAndValue(t *testing.T) {
	var req UpdateEquipmentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Laser printer","category":null}`), &req))

	assert.True(t, req.Name.Set)
	assert.True(t, req.Name.Valid)
	assert.Equal(t, "Laser printer", req.Name.Value)

	assert.True(t, req.Category.Set)
	assert.False(t, req.Category.Valid)
	assert.Nil(t, req.Category.Ptr())

	assert.False(t, req.PurchaseDate.Set)
	assert.False(t, req.Status.Set)
	assert.True(t, req.HasChanges())
}

func TestPatchDecimalValue(t *testing.T) {
	var req UpdateEquipmentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"purchase_price":"1500.10"}`), &req))
	require.True(t, req.PurchasePrice.Valid)
	assert.Equal(t, "1500.1", req.PurchasePrice.Value.String())

	var empty UpdateEquipmentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"unknown":"ignored"}`), &empty))
	assert.False(t, empty.HasChanges())
}
