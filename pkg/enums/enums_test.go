package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeadCategory_AcceptsLegacyFormValues(t *testing.T) {
	for raw, want := range map[string]LeadCategory{
		"Removal":   CategoryRemoval,
		"Trimming":  CategoryTrimming,
		"Stump":     CategoryStump,
		"Crane":     CategoryCrane,
		"Emergency": CategoryEmergency,
		"removal":   CategoryRemoval,
		" crane ":   CategoryCrane,
	} {
		got, err := ParseLeadCategory(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseLeadCategory("landscaping")
	assert.Error(t, err)
}

func TestParseDeliveryPref(t *testing.T) {
	for raw, want := range map[string]DeliveryPref{
		"EmailOnly":     DeliveryEmailOnly,
		"SmsAndEmail":   DeliverySmsAndEmail,
		"SmsOnly":       DeliverySmsOnly,
		"sms_and_email": DeliverySmsAndEmail,
	} {
		got, err := ParseDeliveryPref(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseDeliveryPref("carrier-pigeon")
	assert.Error(t, err)
}

func TestDeliveryPrefChannels(t *testing.T) {
	assert.Equal(t, []InterestChannel{ChannelEmail}, DeliveryEmailOnly.Channels())
	assert.Equal(t, []InterestChannel{ChannelSMS}, DeliverySmsOnly.Channels())
	assert.Equal(t, []InterestChannel{ChannelSMS, ChannelEmail}, DeliverySmsAndEmail.Channels())
	assert.Nil(t, DeliveryPref("bogus").Channels())
}

func TestLeadStatusValidity(t *testing.T) {
	assert.True(t, LeadStatusNew.IsValid())
	assert.True(t, LeadStatusRefunded.IsValid())
	assert.False(t, LeadStatus("archived").IsValid())
}

func TestParseOutboxEventType(t *testing.T) {
	got, err := ParseOutboxEventType("lead_created")
	require.NoError(t, err)
	assert.Equal(t, EventLeadCreated, got)

	_, err = ParseOutboxEventType("nope")
	assert.Error(t, err)
}
