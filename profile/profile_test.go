package profile_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/heartbeat-sense/heartbeat-go/profile"
	"github.com/stretchr/testify/require"
)

func TestUserUnmarshalCasingVariants(t *testing.T) {
	t.Run("camel case wins over variants", func(t *testing.T) {
		var u profile.User
		err := json.Unmarshal([]byte(`{"firstName":"Anna","firstname":"ignored","FirstName":"ignored"}`), &u)
		require.NoError(t, err)
		require.Equal(t, "Anna", u.FirstName)
	})

	t.Run("lowercase variant", func(t *testing.T) {
		var u profile.User
		err := json.Unmarshal([]byte(`{"firstname":"Anna","FirstName":"ignored"}`), &u)
		require.NoError(t, err)
		require.Equal(t, "Anna", u.FirstName)
	})

	t.Run("capitalized variant", func(t *testing.T) {
		var u profile.User
		err := json.Unmarshal([]byte(`{"FirstName":"Anna","LastName":"Smit"}`), &u)
		require.NoError(t, err)
		require.Equal(t, "Anna", u.FirstName)
		require.Equal(t, "Smit", u.LastName)
	})

	t.Run("numeric wire values kept as literals", func(t *testing.T) {
		var u profile.User
		err := json.Unmarshal([]byte(`{"height":182,"weight":"76"}`), &u)
		require.NoError(t, err)
		require.Equal(t, "182", u.HeightCm)
		require.Equal(t, "76", u.WeightKg)
	})

	t.Run("rotated token picked up", func(t *testing.T) {
		var u profile.User
		err := json.Unmarshal([]byte(`{"email":"a@b.com","token":"rotated"}`), &u)
		require.NoError(t, err)
		require.Equal(t, "rotated", u.Token)
	})
}

func TestDisplayName(t *testing.T) {
	t.Run("first name preferred", func(t *testing.T) {
		u := &profile.User{FirstName: "Anna", Name: "anna.s", Email: "a@b.com"}
		require.Equal(t, "Anna", u.DisplayName())
	})

	t.Run("email fallback", func(t *testing.T) {
		u := &profile.User{Email: "a@b.com"}
		require.Equal(t, "a@b.com", u.DisplayName())
	})

	t.Run("username before email", func(t *testing.T) {
		u := &profile.User{Username: "anna", Email: "a@b.com"}
		require.Equal(t, "anna", u.DisplayName())
	})

	t.Run("empty profile yields empty string", func(t *testing.T) {
		u := &profile.User{}
		require.Equal(t, "", u.DisplayName())
	})

	t.Run("nil user", func(t *testing.T) {
		var u *profile.User
		require.Equal(t, "", u.DisplayName())
	})
}

func TestAge(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

	t.Run("birthday passed this year", func(t *testing.T) {
		u := &profile.User{DateOfBirth: "1990-03-15"}
		age, ok := u.Age(now)
		require.True(t, ok)
		require.Equal(t, 36, age)
	})

	t.Run("birthday not yet reached", func(t *testing.T) {
		u := &profile.User{DateOfBirth: "1990-12-01"}
		age, ok := u.Age(now)
		require.True(t, ok)
		require.Equal(t, 35, age)
	})

	t.Run("birthday today", func(t *testing.T) {
		u := &profile.User{DateOfBirth: "1990-08-31"}
		age, ok := u.Age(now)
		require.True(t, ok)
		require.Equal(t, 36, age)
	})

	t.Run("RFC3339 date accepted", func(t *testing.T) {
		u := &profile.User{DateOfBirth: "1990-03-15T00:00:00Z"}
		age, ok := u.Age(now)
		require.True(t, ok)
		require.Equal(t, 36, age)
	})

	t.Run("absent date of birth", func(t *testing.T) {
		u := &profile.User{}
		_, ok := u.Age(now)
		require.False(t, ok)
	})

	t.Run("unparseable date of birth", func(t *testing.T) {
		u := &profile.User{DateOfBirth: "15/03/1990"}
		_, ok := u.Age(now)
		require.False(t, ok)
	})
}

func TestMerge(t *testing.T) {
	t.Run("fresh fields win, cached fills gaps", func(t *testing.T) {
		fresh := &profile.User{FirstName: "Anna", Email: "new@b.com"}
		cached := &profile.User{FirstName: "Old", LastName: "Smit", DateOfBirth: "1990-03-15"}

		merged := profile.Merge(fresh, cached)
		require.Equal(t, "Anna", merged.FirstName)
		require.Equal(t, "new@b.com", merged.Email)
		require.Equal(t, "Smit", merged.LastName)
		require.Equal(t, "1990-03-15", merged.DateOfBirth)
	})

	t.Run("nil cached", func(t *testing.T) {
		fresh := &profile.User{FirstName: "Anna"}
		merged := profile.Merge(fresh, nil)
		require.Equal(t, "Anna", merged.FirstName)
	})

	t.Run("nil fresh", func(t *testing.T) {
		cached := &profile.User{FirstName: "Anna"}
		merged := profile.Merge(nil, cached)
		require.Equal(t, "Anna", merged.FirstName)
	})

	t.Run("both nil", func(t *testing.T) {
		require.Nil(t, profile.Merge(nil, nil))
	})
}
