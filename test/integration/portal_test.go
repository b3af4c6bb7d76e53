package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/mehedimath/backend/internal/auth"
	"github.com/mehedimath/backend/internal/config"
	"github.com/mehedimath/backend/internal/handlers"
	"github.com/mehedimath/backend/internal/models"
	"github.com/mehedimath/backend/internal/repositories"
	"github.com/mehedimath/backend/internal/services"
	"github.com/mehedimath/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testLogger *zap.Logger
)

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := cfg.DSN()
	if cfg.Database.Host == "" {
		// Default test database connection
		dsn = "root:password@tcp(localhost:3306)/mehedimath_test?parseTime=true&charset=utf8mb4"
	}

	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}

	setupTestSchemaForMain(testDB)

	testRouter = setupTestRouter(testDB, testLogger)

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchemaForMain creates the test database schema (for TestMain)
func setupTestSchemaForMain(db *sql.DB) {
	usersTable := `
		CREATE TABLE IF NOT EXISTS users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'USER',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	sessionsTable := `
		CREATE TABLE IF NOT EXISTS sessions (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			token VARCHAR(64) NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	coursesTable := `
		CREATE TABLE IF NOT EXISTS courses (
			id INT PRIMARY KEY AUTO_INCREMENT,
			title VARCHAR(255) NOT NULL,
			description TEXT NULL,
			banner_image VARCHAR(512) NOT NULL,
			page_link VARCHAR(512) NOT NULL,
			display_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	accessRequestsTable := `
		CREATE TABLE IF NOT EXISTS access_requests (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			course_id INT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			message TEXT NULL,
			admin_note TEXT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_access_requests_user_course (user_id, course_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`

	db.Exec(usersTable)
	db.Exec(sessionsTable)
	db.Exec(coursesTable)
	db.Exec(accessRequestsTable)
}

// setupTestRouter creates a test router wired like main
func setupTestRouter(db *sql.DB, logger *zap.Logger) chi.Router {
	userRepo := repositories.NewUserRepository(db, logger)
	sessionRepo := repositories.NewSessionRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	requestRepo := repositories.NewAccessRequestRepository(db)

	fileStorage := storage.NewLocalStorage(os.TempDir())

	authSvc := services.NewAuthService(userRepo, sessionRepo, logger, time.Hour)
	courseSvc := services.NewCourseService(courseRepo, logger)
	requestSvc := services.NewAccessRequestService(requestRepo, courseRepo, logger)
	adminSvc := services.NewAdminService(userRepo, logger, "admin@example.com", "AdminPass1", "Admin")
	mediaSvc := services.NewMediaService(fileStorage, "/api/v1/uploads")

	authHandler := handlers.NewAuthHandler(authSvc, logger, time.Hour)
	courseHandler := handlers.NewCourseHandler(courseSvc, logger)
	requestHandler := handlers.NewAccessRequestHandler(requestSvc, logger)
	adminHandler := handlers.NewAdminHandler(adminSvc, logger)
	mediaHandler := handlers.NewMediaHandler(mediaSvc, logger)

	sessionMiddleware := auth.Middleware(authSvc)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		courseHandler.RegisterPublicRoutes(r)
		mediaHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware)
			authHandler.RegisterProtectedRoutes(r)
			requestHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				courseHandler.RegisterAdminRoutes(r)
				requestHandler.RegisterAdminRoutes(r)
				mediaHandler.RegisterAdminRoutes(r)
				adminHandler.RegisterRoutes(r)
			})
		})
	})

	return r
}

// seedTestData resets the tables and inserts one admin and one regular user
func seedTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec("DELETE FROM access_requests")
	require.NoError(t, err, "Failed to clear access_requests")
	_, err = db.Exec("DELETE FROM sessions")
	require.NoError(t, err, "Failed to clear sessions")
	_, err = db.Exec("DELETE FROM courses")
	require.NoError(t, err, "Failed to clear courses")
	_, err = db.Exec("DELETE FROM users")
	require.NoError(t, err, "Failed to clear users")

	_, err = db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset users AUTO_INCREMENT")
	_, err = db.Exec("ALTER TABLE courses AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset courses AUTO_INCREMENT")
	_, err = db.Exec("ALTER TABLE access_requests AUTO_INCREMENT = 1")
	require.NoError(t, err, "Failed to reset access_requests AUTO_INCREMENT")

	adminHash, err := bcrypt.GenerateFromPassword([]byte("AdminPass1"), bcrypt.DefaultCost)
	require.NoError(t, err, "Failed to hash admin password")
	userHash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	require.NoError(t, err, "Failed to hash user password")

	query := `INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)`
	_, err = db.Exec(query, "admin@example.com", string(adminHash), "Admin", models.RoleAdmin)
	require.NoError(t, err, "Failed to seed admin user")
	_, err = db.Exec(query, "student@example.com", string(userHash), "Student", models.RoleUser)
	require.NoError(t, err, "Failed to seed test user")
}

// getCookieValue extracts a cookie value from the response
func getCookieValue(w *httptest.ResponseRecorder, name string) string {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// login logs in as the given user and returns the session cookie value
func login(t *testing.T, email, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "login should succeed: %s", w.Body.String())
	token := getCookieValue(w, auth.SessionCookieName)
	require.NotEmpty(t, token, "session cookie should be set")
	return token
}

// doJSON performs a JSON request with an optional session cookie
func doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func TestIntegration_SignupAndMe(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	w := doJSON(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "newuser@example.com",
		"password": "Password123",
		"name":     "New User",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := getCookieValue(w, auth.SessionCookieName)
	assert.NotEmpty(t, token, "session cookie should be set")

	// Password must be stored hashed
	var passwordHash string
	err := testDB.QueryRow("SELECT password_hash FROM users WHERE email = ?", "newuser@example.com").Scan(&passwordHash)
	require.NoError(t, err)
	assert.NotEqual(t, "Password123", passwordHash)

	// The fresh session resolves to the new identity
	w = doJSON(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]models.Identity
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "newuser@example.com", response["user"].Email)
	assert.Equal(t, models.RoleUser, response["user"].Role)
}

func TestIntegration_CourseLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	adminToken := login(t, "admin@example.com", "AdminPass1")
	userToken := login(t, "student@example.com", "Password123")

	// Regular users cannot create courses
	w := doJSON(t, http.MethodPost, "/api/v1/courses", userToken, map[string]string{
		"title":       "Algebra",
		"bannerImage": "/api/v1/uploads/a.png",
		"pageLink":    "https://example.com/algebra",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin creates two courses
	w = doJSON(t, http.MethodPost, "/api/v1/courses", adminToken, map[string]string{
		"title":       "Algebra",
		"description": "Linear equations",
		"bannerImage": "/api/v1/uploads/a.png",
		"pageLink":    "https://example.com/algebra",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, http.MethodPost, "/api/v1/courses", adminToken, map[string]string{
		"title":       "Geometry",
		"bannerImage": "/api/v1/uploads/g.png",
		"pageLink":    "https://example.com/geometry",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Courses get consecutive display orders
	w = doJSON(t, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResponse models.CourseListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listResponse))
	require.Len(t, listResponse.Courses, 2)
	assert.Equal(t, "Algebra", listResponse.Courses[0].Title)
	assert.Equal(t, 1, listResponse.Courses[0].Order)
	assert.Equal(t, 2, listResponse.Courses[1].Order)
	assert.Equal(t, 2, listResponse.Pagination.Total)

	// Reorder swaps the two
	w = doJSON(t, http.MethodPatch, "/api/v1/courses/reorder", adminToken, map[string]any{
		"courseOrders": []map[string]int{
			{"id": listResponse.Courses[0].ID, "order": 2},
			{"id": listResponse.Courses[1].ID, "order": 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listResponse))
	assert.Equal(t, "Geometry", listResponse.Courses[0].Title)
}

func TestIntegration_ListRepairsZeroOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	// Legacy rows without a display order
	query := `INSERT INTO courses (title, banner_image, page_link, display_order, created_at) VALUES (?, ?, ?, 0, ?)`
	_, err := testDB.Exec(query, "Oldest", "/a.png", "https://example.com/a", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = testDB.Exec(query, "Newest", "/b.png", "https://example.com/b", time.Now().Add(-1*time.Hour))
	require.NoError(t, err)

	w := doJSON(t, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listResponse models.CourseListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listResponse))
	require.Len(t, listResponse.Courses, 2)
	assert.Equal(t, "Oldest", listResponse.Courses[0].Title)
	assert.Equal(t, 1, listResponse.Courses[0].Order)
	assert.Equal(t, 2, listResponse.Courses[1].Order)
}

func TestIntegration_AccessRequestLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	adminToken := login(t, "admin@example.com", "AdminPass1")
	userToken := login(t, "student@example.com", "Password123")

	// Admin creates a course
	w := doJSON(t, http.MethodPost, "/api/v1/courses", adminToken, map[string]string{
		"title":       "Algebra",
		"bannerImage": "/api/v1/uploads/a.png",
		"pageLink":    "https://example.com/algebra",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var courseResponse map[string]models.Course
	require.NoError(t, json.NewDecoder(w.Body).Decode(&courseResponse))
	courseID := courseResponse["course"].ID

	// Student requests access
	w = doJSON(t, http.MethodPost, "/api/v1/access-requests", userToken, map[string]any{
		"courseId": courseID,
		"message":  "paid via bkash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var createResponse map[string]models.AccessRequest
	require.NoError(t, json.NewDecoder(w.Body).Decode(&createResponse))
	request := createResponse["accessRequest"]
	assert.Equal(t, models.StatusPending, request.Status)
	require.NotNil(t, request.Course)
	assert.Equal(t, courseID, request.Course.ID)

	// A second request for the same course conflicts
	w = doJSON(t, http.MethodPost, "/api/v1/access-requests", userToken, map[string]any{
		"courseId": courseID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Regular users cannot transition requests
	w = doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/access-requests/%d", request.ID), userToken, map[string]string{
		"status": "APPROVED",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Rejecting without a note is refused
	w = doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/access-requests/%d", request.ID), adminToken, map[string]string{
		"status": "REJECTED",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Approve, then suspend with a note
	w = doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/access-requests/%d", request.ID), adminToken, map[string]string{
		"status": "APPROVED",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/access-requests/%d", request.ID), adminToken, map[string]string{
		"status":    "SUSPENDED",
		"adminNote": "chargeback",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updateResponse map[string]models.AccessRequest
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updateResponse))
	assert.Equal(t, models.StatusSuspended, updateResponse["accessRequest"].Status)
	assert.Equal(t, "chargeback", updateResponse["accessRequest"].AdminNote)

	// Suspended back to pending is not a legal move
	w = doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/access-requests/%d", request.ID), adminToken, map[string]string{
		"status": "PENDING",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The student still sees the request after the course is deleted
	w = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", courseID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, http.MethodGet, "/api/v1/access-requests/user", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mineResponse map[string][]models.AccessRequest
	require.NoError(t, json.NewDecoder(w.Body).Decode(&mineResponse))
	require.Len(t, mineResponse["requests"], 1)
	assert.Nil(t, mineResponse["requests"][0].Course, "deleted course should surface as null")
}

func TestIntegration_ConcurrentDuplicateRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	adminToken := login(t, "admin@example.com", "AdminPass1")
	userToken := login(t, "student@example.com", "Password123")

	w := doJSON(t, http.MethodPost, "/api/v1/courses", adminToken, map[string]string{
		"title":       "Geometry",
		"bannerImage": "/api/v1/uploads/g.png",
		"pageLink":    "https://example.com/geometry",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var courseResponse map[string]models.Course
	require.NoError(t, json.NewDecoder(w.Body).Decode(&courseResponse))
	courseID := courseResponse["course"].ID

	// Two simultaneous submissions for the same (user, course) pair: the
	// unique key must let exactly one through
	payload, err := json.Marshal(map[string]int{"courseId": courseID})
	require.NoError(t, err)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/access-requests", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: userToken})
			rec := httptest.NewRecorder()
			testRouter.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	assert.Equal(t, 1, counts[http.StatusCreated], "exactly one submission should win: %v", counts)
	assert.Equal(t, 1, counts[http.StatusConflict], "the loser should conflict: %v", counts)

	var rows int
	require.NoError(t, testDB.QueryRow(
		"SELECT COUNT(*) FROM access_requests WHERE course_id = ?", courseID).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestIntegration_AdminUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	adminToken := login(t, "admin@example.com", "AdminPass1")
	userToken := login(t, "student@example.com", "Password123")

	// Regular users cannot list users
	w := doJSON(t, http.MethodGet, "/api/v1/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Anonymous callers get 401
	w = doJSON(t, http.MethodGet, "/api/v1/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]models.UserListItem
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Len(t, response["users"], 2)
}

func TestIntegration_Logout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	seedTestData(t, testDB)

	userToken := login(t, "student@example.com", "Password123")

	w := doJSON(t, http.MethodPost, "/api/v1/auth/logout", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The session no longer resolves
	w = doJSON(t, http.MethodGet, "/api/v1/auth/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
