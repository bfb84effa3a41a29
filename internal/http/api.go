package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"levelup/internal/domain"
	"levelup/internal/exercisedb"
	"levelup/internal/service"
	"levelup/internal/session"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts  service.AccountService
	workouts  service.WorkoutService
	nutrition service.NutritionService
	profile   service.ProfileService
	search    *exercisedb.Client
	sessions  *session.Manager
	logger    logrus.FieldLogger
	avatarDir string
}

func NewHandler(
	accounts service.AccountService,
	workouts service.WorkoutService,
	nutrition service.NutritionService,
	profile service.ProfileService,
	search *exercisedb.Client,
	sessions *session.Manager,
	logger logrus.FieldLogger,
	avatarDir string,
) *Handler {
	return &Handler{
		accounts:  accounts,
		workouts:  workouts,
		nutrition: nutrition,
		profile:   profile,
		search:    search,
		sessions:  sessions,
		logger:    logger,
		avatarDir: avatarDir,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.sessionGuard())

	router.GET("/", h.home)
	router.GET("/register", h.registerForm)
	router.POST("/register", h.register)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)

	router.GET("/profile", h.showProfile)
	router.POST("/edit_profile_name", h.editProfileName)
	router.POST("/upload_image", h.uploadImage)

	router.GET("/workouts", h.listWorkouts)
	router.POST("/add_workout", h.addWorkout)
	router.POST("/workouts/delete/:id", h.deleteWorkout)

	router.GET("/nutrition", h.listNutrition)
	router.POST("/add_food", h.addNutrition)
	router.POST("/nutrition/delete/:id", h.deleteNutrition)

	router.GET("/search", h.searchExercises)
	router.POST("/search", h.searchExercises)

	if h.avatarDir != "" {
		router.Static("/avatars", h.avatarDir)
	}
}

func (h *Handler) home(c *gin.Context) {
	resp := gin.H{"app": "levelup"}
	if user := currentUser(c); user != nil {
		resp["user"] = userToResponse(user)
	}
	h.attachNotice(c, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) registerForm(c *gin.Context) {
	resp := gin.H{}
	h.attachNotice(c, resp)
	c.JSON(http.StatusOK, resp)
}

type credentialsRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	// An avatar may be attached to the registration form.
	if file, err := c.FormFile("profile_image"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			h.renderError(c, err)
			return
		}
		updated, err := h.profile.UpdateImage(c.Request.Context(), user.ID, file.Filename, src)
		src.Close()
		if err != nil {
			h.renderError(c, err)
			return
		}
		user = updated
	}

	h.startSession(c, user.ID, "Welcome! You have successfully created your profile")
	c.JSON(http.StatusCreated, gin.H{"user": userToResponse(user)})
}

func (h *Handler) loginForm(c *gin.Context) {
	resp := gin.H{}
	h.attachNotice(c, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.startSession(c, user.ID, "Welcome back, "+user.Username+"!")
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) logout(c *gin.Context) {
	sess := h.sessions.New()
	sess.LastActivity = time.Now()
	sess.Notice = "Successfully logged out"
	h.writeSession(c, sess)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) showProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}
	resp := gin.H{"user": userToResponse(user)}
	h.attachNotice(c, resp)
	c.JSON(http.StatusOK, resp)
}

type editNameRequest struct {
	Name string `form:"name" json:"name" binding:"required"`
}

func (h *Handler) editProfileName(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	var req editNameRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.profile.UpdateName(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(updated)})
}

func (h *Handler) uploadImage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	file, err := c.FormFile("profile_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile_image file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		h.renderError(c, err)
		return
	}
	defer src.Close()

	updated, err := h.profile.UpdateImage(c.Request.Context(), user.ID, file.Filename, src)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(updated)})
}

type addWorkoutRequest struct {
	Exercise string `form:"exercise" json:"exercise" binding:"required"`
	Weight   int    `form:"weight" json:"weight"`
	Reps     int    `form:"reps" json:"reps"`
	Sets     int    `form:"sets" json:"sets"`
	Date     string `form:"date" json:"date"`
}

func (h *Handler) listWorkouts(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	workouts, err := h.workouts.List(c.Request.Context(), user.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		resp[i] = workoutToResponse(workouts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addWorkout(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	var req addWorkoutRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workout, err := h.workouts.Add(c.Request.Context(), service.WorkoutInput{
		Exercise: req.Exercise,
		Weight:   req.Weight,
		Reps:     req.Reps,
		Sets:     req.Sets,
		Date:     req.Date,
	}, user.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workoutToResponse(*workout))
}

func (h *Handler) deleteWorkout(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workout id"})
		return
	}

	if err := h.workouts.Delete(c.Request.Context(), id, user.ID); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type addNutritionRequest struct {
	Food     string `form:"food" json:"food" binding:"required"`
	Protein  int    `form:"protein" json:"protein"`
	Carbs    int    `form:"carbs" json:"carbs"`
	Fats     int    `form:"fats" json:"fats"`
	Calories int    `form:"calories" json:"calories"`
	Date     string `form:"date" json:"date"`
}

func (h *Handler) listNutrition(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	entries, err := h.nutrition.List(c.Request.Context(), user.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]NutritionResponse, len(entries))
	for i := range entries {
		resp[i] = nutritionToResponse(entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addNutrition(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	var req addNutritionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.nutrition.Add(c.Request.Context(), service.NutritionInput{
		Food:     req.Food,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fats:     req.Fats,
		Calories: req.Calories,
		Date:     req.Date,
	}, user.ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, nutritionToResponse(*entry))
}

func (h *Handler) deleteNutrition(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.renderError(c, service.ErrNotAuthenticated)
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nutrition id"})
		return
	}

	if err := h.nutrition.Delete(c.Request.Context(), id, user.ID); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) searchExercises(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.PostForm("q")
	}

	results, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]ExerciseResponse, len(results))
	for i := range results {
		resp[i] = exerciseToResponse(results[i])
	}
	c.JSON(http.StatusOK, resp)
}

// startSession binds the user to the current session and records a notice.
func (h *Handler) startSession(c *gin.Context, userID int64, notice string) {
	sess := currentSession(c)
	if sess == nil {
		sess = h.sessions.New()
		sess.LastActivity = time.Now()
	}
	sess.UserID = userID
	sess.Notice = notice
	h.writeSession(c, sess)
}

// attachNotice pops the pending one-shot notice into the response and saves
// the cleared session.
func (h *Handler) attachNotice(c *gin.Context, resp gin.H) {
	sess := currentSession(c)
	if sess == nil {
		return
	}
	if notice := sess.PopNotice(); notice != "" {
		resp["notice"] = notice
		h.writeSession(c, sess)
	}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username/password"})
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrNotAuthenticated.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrUserAlreadyExists.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNotFound.Error()})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

type UserResponse struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image"`
	CreatedAt    string `json:"created_at"`
}

type WorkoutResponse struct {
	ID       int64  `json:"id"`
	Exercise string `json:"exercise"`
	Weight   int    `json:"weight"`
	Reps     int    `json:"reps"`
	Sets     int    `json:"sets"`
	Date     string `json:"date"`
}

type NutritionResponse struct {
	ID       int64  `json:"id"`
	Food     string `json:"food"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fats     int    `json:"fats"`
	Calories int    `json:"calories"`
	Date     string `json:"date"`
}

type ExerciseResponse struct {
	Name      string `json:"name"`
	BodyPart  string `json:"body_part"`
	Equipment string `json:"equipment"`
	Target    string `json:"target"`
	GifURL    string `json:"gif_url,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		ProfileImage: user.ProfileImage,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
	}
}

func workoutToResponse(w domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:       w.ID,
		Exercise: w.Exercise,
		Weight:   w.Weight,
		Reps:     w.Reps,
		Sets:     w.Sets,
		Date:     w.Date,
	}
}

func nutritionToResponse(n domain.Nutrition) NutritionResponse {
	return NutritionResponse{
		ID:       n.ID,
		Food:     n.Food,
		Protein:  n.Protein,
		Carbs:    n.Carbs,
		Fats:     n.Fats,
		Calories: n.Calories,
		Date:     n.Date,
	}
}

func exerciseToResponse(e domain.Exercise) ExerciseResponse {
	return ExerciseResponse{
		Name:      e.Name,
		BodyPart:  e.BodyPart,
		Equipment: e.Equipment,
		Target:    e.Target,
		GifURL:    e.GifURL,
	}
}
