package services

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func register(t *testing.T, f *fixture, name string, admin bool) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Name: name, Email: " " + strings.ToUpper(name) + "@Example.com ", Password: "hunter22", IsAdmin: admin, Role: "dev", Title: "Engineer",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "ada", false)

	assert.Equal(t, "ada@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "hunter22", u.Password)

	_, err := f.users.Register(ctx, RegisterInput{Name: "x", Email: "ada@example.com", Password: "hunter22"})
	assert.True(t, models.IsValidation(err))

	got, session, err := f.users.Login(ctx, "ADA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, f.clock.Now().Add(time.Hour), session.ExpiresAt)

	p, err := f.users.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.False(t, p.IsAdmin)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.Register(ctx, RegisterInput{Email: "a@b.c", Password: "hunter22"})
	assert.True(t, models.IsValidation(err))
	_, err = f.users.Register(ctx, RegisterInput{Name: "a", Email: "a@b.c", Password: "123"})
	assert.True(t, models.IsValidation(err))

	f.users.blacklist = PasswordBlacklist{"password": true}
	_, err = f.users.Register(ctx, RegisterInput{Name: "a", Email: "a@b.c", Password: "PASSWORD"})
	assert.True(t, models.IsValidation(err))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "ada", false)

	_, _, err := f.users.Login(ctx, "nobody@example.com", "hunter22")
	assert.Equal(t, models.KindAuth, models.KindOf(err))
	assert.Equal(t, "Invalid email or password.", models.PublicMessage(err))

	_, _, err = f.users.Login(ctx, "ada@example.com", "wrong-pass")
	assert.Equal(t, "Invalid email or password.", models.PublicMessage(err))

	_, err = f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, _, err = f.users.Login(ctx, "ada@example.com", "hunter22")
	assert.Equal(t, "User account has been deactivated, contact the administrator", models.PublicMessage(err))
}

func TestAuthenticateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "ada", false)
	session, err := f.users.IssueSession(u.ID)
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "")
	assert.Equal(t, models.KindAuth, models.KindOf(err))
	_, err = f.users.Authenticate(ctx, "not-a-jwt")
	assert.Equal(t, models.KindAuth, models.KindOf(err))

	_, err = f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, session.Token)
	assert.Equal(t, models.KindAuth, models.KindOf(err))

	require.NoError(t, f.users.Delete(ctx, u.ID))
	_, err = f.users.Authenticate(ctx, session.Token)
	assert.Equal(t, models.KindAuth, models.KindOf(err))

	ghost, err := f.users.IssueSession(primitive.NewObjectID())
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, ghost.Token)
	assert.Equal(t, models.KindAuth, models.KindOf(err))
}

var otpInEmail = regexp.MustCompile(`>(\d{6})</h2>`)

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "ada", false)

	require.NoError(t, f.users.ForgotPassword(ctx, "Ada@example.com"))
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, utils.PasswordResetSubject, sent[0].Subject)
	m := otpInEmail.FindStringSubmatch(sent[0].HTML)
	require.Len(t, m, 2)
	otp := m[1]

	_, err := f.users.VerifyOTP(ctx, "ada@example.com", "000000")
	assert.True(t, models.IsValidation(err))

	token, err := f.users.VerifyOTP(ctx, "ada@example.com", otp)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	err = f.users.ResetPassword(ctx, "ada@example.com", "wrong", "newpass1")
	assert.True(t, models.IsValidation(err))

	require.NoError(t, f.users.ResetPassword(ctx, "ada@example.com", token, "newpass1"))

	stored, err := f.store.Users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.ResetPasswordOTP)
	assert.Nil(t, stored.ResetPasswordExpires)
	assert.Empty(t, stored.ResetPasswordToken)
	assert.Nil(t, stored.ResetPasswordTokenExpires)

	_, _, err = f.users.Login(ctx, "ada@example.com", "newpass1")
	require.NoError(t, err)

	err = f.users.ResetPassword(ctx, "ada@example.com", token, "another1")
	assert.True(t, models.IsValidation(err), "token is single use")
}

func TestOTPExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "ada", false)

	require.NoError(t, f.users.ForgotPassword(ctx, "ada@example.com"))
	otp := otpInEmail.FindStringSubmatch(f.mailer.Sent()[0].HTML)[1]

	f.clock.Advance(16 * time.Minute)
	_, err := f.users.VerifyOTP(ctx, "ada@example.com", otp)
	assert.True(t, models.IsValidation(err))
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "ada", false)

	require.NoError(t, f.users.ForgotPassword(ctx, "ada@example.com"))
	otp := otpInEmail.FindStringSubmatch(f.mailer.Sent()[0].HTML)[1]
	token, err := f.users.VerifyOTP(ctx, "ada@example.com", otp)
	require.NoError(t, err)

	f.clock.Advance(61 * time.Minute)
	err = f.users.ResetPassword(ctx, "ada@example.com", token, "newpass1")
	assert.True(t, models.IsValidation(err))
}

type failingSender struct{}

func (failingSender) Send(context.Context, utils.Email) error {
	return models.UpstreamError("Failed to send email", nil)
}

func TestForgotPasswordErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, models.IsValidation(f.users.ForgotPassword(ctx, "")))
	assert.True(t, models.IsNotFound(f.users.ForgotPassword(ctx, "nobody@example.com")))

	register(t, f, "ada", false)
	f.users.mailer = failingSender{}
	err := f.users.ForgotPassword(ctx, "ada@example.com")
	assert.Equal(t, models.KindUpstream, models.KindOf(err))
	assert.Equal(t, "Failed to send OTP email. Please try again later.", models.PublicMessage(err))
}

func TestUpdateProfileTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := register(t, f, "root", true)
	ada := register(t, f, "ada", false)
	bob := register(t, f, "bob", false)

	got, err := f.users.UpdateProfile(ctx, principal(ada), ProfileUpdate{ID: bob.ID.Hex(), Name: "Ada L."})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID, "non-admins always edit themselves")
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "Engineer", got.Title)

	got, err = f.users.UpdateProfile(ctx, principal(admin), ProfileUpdate{ID: bob.ID.Hex(), Title: "Lead"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
	assert.Equal(t, "Lead", got.Title)
	assert.Equal(t, "bob", got.Name)

	_, err = f.users.UpdateProfile(ctx, principal(admin), ProfileUpdate{ID: primitive.NewObjectID().Hex()})
	assert.True(t, models.IsNotFound(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := register(t, f, "ada", false)

	require.NoError(t, f.users.ChangePassword(ctx, principal(u), "brandnew1"))
	_, _, err := f.users.Login(ctx, "ada@example.com", "hunter22")
	assert.Equal(t, models.KindAuth, models.KindOf(err))
	_, _, err = f.users.Login(ctx, "ada@example.com", "brandnew1")
	assert.NoError(t, err)
}

func TestTeamListStatsAndTaskStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := register(t, f, "root", true)
	ada := register(t, f, "ada", false)
	f.createTask(t, admin, "Shared", admin, ada)
	f.createTask(t, admin, "Solo")

	team, err := f.users.TeamList(ctx, "")
	require.NoError(t, err)
	require.Len(t, team, 2)

	team, err = f.users.TeamList(ctx, "ADA@")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, ada.ID, team[0].ID)

	stats, err := f.users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{TotalUsers: 2, ActiveUsers: 2, AdminUsers: 1}, stats)

	status, err := f.users.TaskStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, ada.ID, status[0].ID)
	require.Len(t, status[0].Tasks, 1)
	assert.Equal(t, "Shared", status[0].Tasks[0].Title)
	assert.Len(t, status[1].Tasks, 2)
}

func TestLoadBlackList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("123456\nPassword\n\n"), 0o600))

	bl, err := LoadBlackList(path)
	require.NoError(t, err)
	assert.Len(t, bl, 2)
	assert.True(t, bl.Contains("password"))
	assert.False(t, bl.Contains("correct horse"))

	_, err = LoadBlackList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
