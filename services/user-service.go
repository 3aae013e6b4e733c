package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/repositories"
	"github.com/DinieMobo/TaskHero/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
)

const passwordMinLength = 6

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
	Role     string `json:"role"`
	Title    string `json:"title"`
}

type ProfileUpdate struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Role  string `json:"role"`
}

type UserServiceOptions struct {
	OTPTTL        time.Duration
	ResetTokenTTL time.Duration
	Blacklist     PasswordBlacklist
}

type UserService struct {
	users     repositories.UserRepository
	tasks     repositories.TaskRepository
	tokens    *JWTService
	mailer    utils.EmailSender
	blacklist PasswordBlacklist
	otpTTL    time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

func NewUserService(
	users repositories.UserRepository,
	tasks repositories.TaskRepository,
	tokens *JWTService,
	mailer utils.EmailSender,
	opts UserServiceOptions,
) *UserService {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 15 * time.Minute
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &UserService{
		users:     users,
		tasks:     tasks,
		tokens:    tokens,
		mailer:    mailer,
		blacklist: opts.Blacklist,
		otpTTL:    opts.OTPTTL,
		resetTTL:  opts.ResetTokenTTL,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < passwordMinLength {
		return "", models.ValidationError("Password must be at least %d characters", passwordMinLength)
	}
	if s.blacklist.Contains(password) {
		return "", models.ValidationError("Password is too common, choose another one")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if in.Name == "" || email == "" || in.Password == "" {
		return nil, models.ValidationError("Name, email and password are required")
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, models.ValidationError("Email address already exists")
	} else if !models.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      in.Name,
		Email:     email,
		Password:  hash,
		IsAdmin:   in.IsAdmin,
		IsActive:  true,
		Role:      in.Role,
		Title:     in.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered (admin=%t)", user.ID.Hex(), user.IsAdmin)
	return user, nil
}

// Session is a freshly issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

func (s *UserService) IssueSession(userID primitive.ObjectID) (*Session, error) {
	token, expires, err := s.tokens.GenerateToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if models.IsNotFound(err) {
		return nil, nil, models.AuthError("Invalid email or password.")
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, models.AuthError("User account has been deactivated, contact the administrator")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for user %s", user.ID.Hex())
		return nil, nil, models.AuthError("Invalid email or password.")
	}
	session, err := s.IssueSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	logging.Logger.Infof("Event ID: USER_LOGGED_IN, Description: User %s logged in", user.ID.Hex())
	return user, session, nil
}

// Authenticate resolves a session token to its principal.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, models.AuthError("Not authorized. Try login again.")
	}
	userID, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if models.IsNotFound(err) {
		return nil, models.AuthError("Not authorized. Try login again.")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.AuthError("User account has been deactivated, contact the administrator")
	}
	return &models.Principal{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
}

func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return models.ValidationError("Email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if models.IsNotFound(err) {
		return models.NotFoundError("User not found with this email")
	}
	if err != nil {
		return err
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.otpTTL)
	user.ResetPasswordOTP = otp
	user.ResetPasswordExpires = &expires
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	html, err := utils.RenderPasswordReset(utils.PasswordResetData{
		Name:             user.Name,
		OTP:              otp,
		ExpiresInMinutes: int(s.otpTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, utils.Email{To: user.Email, Subject: utils.PasswordResetSubject, HTML: html}); err != nil {
		logging.Logger.Errorf("Event ID: OTP_EMAIL_FAILED, Description: Email sending failed for user %s: %v", user.ID.Hex(), err)
		return models.UpstreamError("Failed to send OTP email. Please try again later.", err)
	}
	logging.Logger.Infof("Event ID: OTP_SENT, Description: Password reset OTP sent to user %s", user.ID.Hex())
	return nil
}

// VerifyOTP exchanges a valid OTP for a reset token.
func (s *UserService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	email = normalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return "", models.ValidationError("Email and OTP are required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if models.IsNotFound(err) {
		return "", models.ValidationError("Invalid or expired OTP")
	}
	if err != nil {
		return "", err
	}
	now := s.now()
	if user.ResetPasswordOTP == "" || user.ResetPasswordOTP != otp ||
		user.ResetPasswordExpires == nil || !user.ResetPasswordExpires.After(now) {
		return "", models.ValidationError("Invalid or expired OTP")
	}

	token, err := utils.GenerateResetToken()
	if err != nil {
		return "", err
	}
	expires := now.Add(s.resetTTL)
	user.ResetPasswordToken = token
	user.ResetPasswordTokenExpires = &expires
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

func (s *UserService) ResetPassword(ctx context.Context, email, token, password string) error {
	email = normalizeEmail(email)
	if email == "" || token == "" || password == "" {
		return models.ValidationError("All fields are required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if models.IsNotFound(err) {
		return models.ValidationError("Invalid or expired reset token")
	}
	if err != nil {
		return err
	}
	now := s.now()
	if user.ResetPasswordToken == "" || user.ResetPasswordToken != token ||
		user.ResetPasswordTokenExpires == nil || !user.ResetPasswordTokenExpires.After(now) {
		return models.ValidationError("Invalid or expired reset token")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hash
	user.ClearReset()
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: PASSWORD_RESET, Description: Password reset for user %s", user.ID.Hex())
	return nil
}

// UpdateProfile lets admins edit any user named by in.ID. Everyone else
// edits themselves regardless of in.ID.
func (s *UserService) UpdateProfile(ctx context.Context, p *models.Principal, in ProfileUpdate) (*models.User, error) {
	target := p.UserID
	if p.IsAdmin && in.ID != "" {
		id, err := ParseID(in.ID, "User")
		if err != nil {
			return nil, err
		}
		target = id
	}
	user, err := s.users.FindByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		user.Name = v
	}
	if v := strings.TrimSpace(in.Title); v != "" {
		user.Title = v
	}
	if v := strings.TrimSpace(in.Role); v != "" {
		user.Role = v
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, p *models.Principal, password string) error {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	user.Password = hash
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: PASSWORD_CHANGED, Description: User %s changed password", user.ID.Hex())
	return nil
}

func (s *UserService) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_ACTIVE_CHANGED, Description: User %s active=%t", id.Hex(), active)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted", id.Hex())
	return nil
}

func (s *UserService) TeamList(ctx context.Context, search string) ([]models.UserSummary, error) {
	users, err := s.users.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// TaskStatus lists every user with the live tasks whose team contains them,
// newest users first.
func (s *UserService) TaskStatus(ctx context.Context) ([]models.UserTaskStatus, error) {
	users, err := s.users.List(ctx, "")
	if err != nil {
		return nil, err
	}
	live := false
	tasks, err := s.tasks.List(ctx, models.TaskFilter{Trashed: &live})
	if err != nil {
		return nil, err
	}

	byUser := map[primitive.ObjectID][]models.TaskStatusRef{}
	for _, t := range tasks {
		for _, member := range t.Team {
			byUser[member] = append(byUser[member], models.TaskStatusRef{ID: t.ID, Title: t.Title, Stage: t.Stage})
		}
	}

	slices.SortFunc(users, func(a, b models.User) int { return strings.Compare(b.ID.Hex(), a.ID.Hex()) })
	out := make([]models.UserTaskStatus, 0, len(users))
	for i := range users {
		refs := byUser[users[i].ID]
		if refs == nil {
			refs = []models.TaskStatusRef{}
		}
		out = append(out, models.UserTaskStatus{UserSummary: users[i].Summary(), Tasks: refs})
	}
	return out, nil
}

func (s *UserService) Stats(ctx context.Context) (models.UserStats, error) {
	return s.users.Stats(ctx)
}
