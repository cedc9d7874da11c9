package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-token"

func testValues() url.Values {
	v := url.Values{}
	v.Set("query_id", "AAH")
	v.Set("user", `{"id":424242,"username":"brickboss","first_name":"Brick"}`)
	v.Set("auth_date", "1700000000")
	v.Set("start_param", "ref_99")
	return v
}

func TestSignMatchesManualHMAC(t *testing.T) {
	v := url.Values{}
	v.Set("b", "2")
	v.Set("a", "1")
	v.Set("hash", "ignored")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(testBotToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte("a=1\nb=2"))

	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), Sign(v, testBotToken))
}

func TestValidateInitDataRoundTrip(t *testing.T) {
	raw := SignInitData(testValues(), testBotToken)

	data, err := ValidateInitData(raw, testBotToken)
	require.NoError(t, err)
	require.EqualValues(t, 424242, data.User.ID)
	require.Equal(t, "424242", data.PlayerID())
	require.Equal(t, "brickboss", data.User.Username)
	require.Equal(t, "ref_99", data.StartParam)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), data.AuthDate)
}

func TestValidateInitDataRejects(t *testing.T) {
	_, err := ValidateInitData("", testBotToken)
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = ValidateInitData(testValues().Encode(), testBotToken)
	require.ErrorIs(t, err, ErrMissingHash)

	raw := SignInitData(testValues(), testBotToken)
	_, err = ValidateInitData(raw, "other:token")
	require.ErrorIs(t, err, ErrInvalidSignature)

	tampered, err := url.ParseQuery(raw)
	require.NoError(t, err)
	tampered.Set("user", `{"id":1}`)
	_, err = ValidateInitData(tampered.Encode(), testBotToken)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateInitDataMalformed(t *testing.T) {
	_, err := ValidateInitData("user=%zz&hash=ab", testBotToken)
	require.ErrorIs(t, err, ErrMalformedToken)

	values := url.Values{}
	values.Set("user", "{not json")
	values.Set("auth_date", "1700000000")
	_, err = ValidateInitData(SignInitData(values, testBotToken), testBotToken)
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = ParseInitData("auth_date=yesterday")
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestParseInitDataWithoutSignature(t *testing.T) {
	data, err := ParseInitData(testValues().Encode())
	require.NoError(t, err)
	require.Equal(t, "424242", data.PlayerID())

	empty, err := ParseInitData("")
	require.NoError(t, err)
	require.Empty(t, empty.PlayerID())
}
