package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// rfcSecret is the ASCII seed "12345678901234567890" from RFC 6238
// Appendix B, Base32-encoded.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func fixedClock(unix int64) Clock {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}

func TestGenerateCodeRFCVectors(t *testing.T) {
	// RFC 6238 Appendix B, SHA1, 8 digits.
	vectors := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}

	for _, v := range vectors {
		e := NewEngineWithClock(fixedClock(v.unix))
		code, err := e.GenerateCode(rfcSecret, Options{Digits: 8})
		require.NoError(t, err)
		require.Equal(t, v.want, code, "unix=%d", v.unix)
	}
}

func TestGenerateCodeDefaults(t *testing.T) {
	e := NewEngineWithClock(fixedClock(59))

	code, err := e.GenerateCode(rfcSecret, Options{})
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.Equal(t, "287082", code) // low 6 digits of the 8-digit vector
}

func TestGenerateCodeStableWithinWindow(t *testing.T) {
	a := NewEngineWithClock(fixedClock(30))
	b := NewEngineWithClock(fixedClock(59))
	c := NewEngineWithClock(fixedClock(60))

	codeA, err := a.GenerateCode(rfcSecret, Options{})
	require.NoError(t, err)
	codeB, err := b.GenerateCode(rfcSecret, Options{})
	require.NoError(t, err)
	codeC, err := c.GenerateCode(rfcSecret, Options{})
	require.NoError(t, err)

	require.Equal(t, codeA, codeB)
	require.NotEqual(t, codeB, codeC)
}

func TestGenerateCodeAlgorithms(t *testing.T) {
	e := NewEngineWithClock(fixedClock(59))

	for _, alg := range []string{"SHA1", "SHA256", "SHA512", "sha256"} {
		code, err := e.GenerateCode(rfcSecret, Options{Algorithm: alg})
		require.NoError(t, err, alg)
		require.Len(t, code, 6, alg)
	}

	sha1Code, err := e.GenerateCode(rfcSecret, Options{Algorithm: "SHA1"})
	require.NoError(t, err)
	sha256Code, err := e.GenerateCode(rfcSecret, Options{Algorithm: "SHA256"})
	require.NoError(t, err)
	require.NotEqual(t, sha1Code, sha256Code)
}

func TestGenerateCodeValidation(t *testing.T) {
	e := NewEngineWithClock(fixedClock(59))

	_, err := e.GenerateCode("short", Options{})
	require.ErrorIs(t, err, ErrInvalidSecret)

	_, err = e.GenerateCode("not base32 at all 189!", Options{})
	require.ErrorIs(t, err, ErrInvalidSecret)

	_, err = e.GenerateCode(rfcSecret, Options{Digits: -1})
	require.ErrorIs(t, err, ErrInvalidDigits)

	_, err = e.GenerateCode(rfcSecret, Options{Period: -5})
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = e.GenerateCode(rfcSecret, Options{Algorithm: "MD5"})
	require.ErrorIs(t, err, ErrInvalidAlgorithm)
}

func TestGenerateCodeNormalizesSecret(t *testing.T) {
	e := NewEngineWithClock(fixedClock(59))

	canonical, err := e.GenerateCode(rfcSecret, Options{})
	require.NoError(t, err)

	messy := "gezd gnbv gy3t qojq GEZD GNBV GY3T QOJQ===="
	code, err := e.GenerateCode(messy, Options{})
	require.NoError(t, err)
	require.Equal(t, canonical, code)
}

func TestVerifyCode(t *testing.T) {
	e := NewEngineWithClock(fixedClock(59))

	ok, err := e.VerifyCode("94287082", rfcSecret, Options{Digits: 8})
	require.NoError(t, err)
	require.True(t, ok)

	// Whitespace around the token is tolerated.
	ok, err = e.VerifyCode(" 94287082 ", rfcSecret, Options{Digits: 8})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.VerifyCode("00000000", rfcSecret, Options{Digits: 8})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyCodeWindow(t *testing.T) {
	// The code for unix 59 lives in counter 1. One step later (counter 2)
	// it is still accepted with the default window of 1, but not at
	// counter 3.
	past := NewEngineWithClock(fixedClock(59))
	code, err := past.GenerateCode(rfcSecret, Options{})
	require.NoError(t, err)

	next := NewEngineWithClock(fixedClock(75))
	ok, err := next.VerifyCode(code, rfcSecret, Options{})
	require.NoError(t, err)
	require.True(t, ok)

	later := NewEngineWithClock(fixedClock(105))
	ok, err = later.VerifyCode(code, rfcSecret, Options{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemainingSeconds(t *testing.T) {
	require.Equal(t, 1, NewEngineWithClock(fixedClock(59)).RemainingSeconds(30))
	require.Equal(t, 30, NewEngineWithClock(fixedClock(60)).RemainingSeconds(30))
	require.Equal(t, 30, NewEngineWithClock(fixedClock(0)).RemainingSeconds(30))
	// Non-positive period falls back to the default.
	require.Equal(t, 1, NewEngineWithClock(fixedClock(29)).RemainingSeconds(0))
}

func TestElapsedFraction(t *testing.T) {
	require.Equal(t, 0.0, NewEngineWithClock(fixedClock(60)).ElapsedFraction(30))
	require.Equal(t, 0.5, NewEngineWithClock(fixedClock(75)).ElapsedFraction(30))
}

func TestNormalizeSecret(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"jbswy3dpehpk3pxp", "JBSWY3DPEHPK3PXP"},
		{"JBSW Y3DP EHPK 3PXP", "JBSWY3DPEHPK3PXP"},
		{"JBSWY3DPEHPK3PXP====", "JBSWY3DPEHPK3PXP"},
		{" jbsw\ty3dp\nehpk 3pxp ", "JBSWY3DPEHPK3PXP"},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizeSecret(c.in), "input %q", c.in)
	}
}

func TestIsValidSecret(t *testing.T) {
	require.True(t, IsValidSecret("JBSWY3DPEHPK3PXP"))
	require.True(t, IsValidSecret("jbsw y3dp ehpk 3pxp"))
	require.False(t, IsValidSecret(""))
	require.False(t, IsValidSecret("ABC234")) // too short
	require.False(t, IsValidSecret("JBSWY3DPEHPK3PX1")) // 1 not in Base32 alphabet
	require.False(t, IsValidSecret("JBSWY3DP!HPK3PXP"))
}

func TestFormatDisplay(t *testing.T) {
	require.Equal(t, "123 456", FormatDisplay("123456"))
	require.Equal(t, "1234 5678", FormatDisplay("12345678"))
	require.Equal(t, "1234567", FormatDisplay("1234567"))
}
