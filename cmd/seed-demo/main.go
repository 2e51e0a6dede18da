package main

import (
	"context"
	"fmt"
	"time"

	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/priyankaksolves/student-exam-app/internal/database"
	"github.com/priyankaksolves/student-exam-app/internal/logger"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo admin, a batch of students, one aptitude exam and one
// coding exam, and assigns every student to both. Intended for local
// development against a fresh database.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewStudentExamRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	// ─── Admin ─────────────────────────────────────────────────────────
	admin := &model.User{
		Name:         "Demo Admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		if err == repository.ErrDuplicateEmail {
			log.Fatal().Msg("Demo data already seeded, aborting")
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}
	fmt.Printf("Created admin %s (password: password123)\n", admin.Email)

	// ─── Students ──────────────────────────────────────────────────────
	names := []string{
		"Aarav Sharma", "Diya Patel", "Ishaan Gupta", "Meera Iyer", "Rohan Verma",
		"Ananya Singh", "Kabir Mehta", "Sana Khan", "Vikram Rao", "Priya Nair",
	}

	studentIDs := make([]int64, 0, len(names))
	for i, name := range names {
		student := &model.User{
			Name:         name,
			Email:        fmt.Sprintf("student%d@example.com", i+1),
			PasswordHash: string(hash),
			Role:         model.RoleStudent,
		}
		if err := userRepo.Create(ctx, student); err != nil {
			log.Fatal().Err(err).Str("email", student.Email).Msg("Failed to create student")
		}
		studentIDs = append(studentIDs, student.ID)
	}
	fmt.Printf("Created %d students (password: password123)\n", len(studentIDs))

	// ─── Aptitude Exam ─────────────────────────────────────────────────
	aptitude := &model.Exam{
		Title:           "General Aptitude Demo",
		Description:     "Mixed multiple choice, multi select, and true/false questions.",
		DurationMinutes: 30,
		ExamType:        model.ExamTypeAptitude,
		PassMarks:       3,
		CreatedBy:       admin.ID,
	}
	if err := examRepo.Create(ctx, aptitude); err != nil {
		log.Fatal().Err(err).Msg("Failed to create aptitude exam")
	}

	no := false
	yes := true
	aptQuestions := []*model.Question{
		{
			ExamID:       aptitude.ID,
			QuestionText: "What is 12 x 12?",
			QuestionType: model.QuestionTypeMultipleChoice,
			Marks:        2,
			Options: []model.Option{
				{OptionText: "124"},
				{OptionText: "144", IsCorrect: true},
				{OptionText: "154"},
				{OptionText: "164"},
			},
		},
		{
			ExamID:       aptitude.ID,
			QuestionText: "Which of the following are prime numbers?",
			QuestionType: model.QuestionTypeMultiSelect,
			Marks:        2,
			Options: []model.Option{
				{OptionText: "2", IsCorrect: true},
				{OptionText: "9"},
				{OptionText: "13", IsCorrect: true},
				{OptionText: "21"},
			},
		},
		{
			ExamID:        aptitude.ID,
			QuestionText:  "The sum of angles in a triangle is 200 degrees.",
			QuestionType:  model.QuestionTypeTrueFalse,
			Marks:         1,
			CorrectAnswer: &no,
		},
		{
			ExamID:        aptitude.ID,
			QuestionText:  "A square is always a rectangle.",
			QuestionType:  model.QuestionTypeTrueFalse,
			Marks:         1,
			CorrectAnswer: &yes,
		},
	}
	for _, q := range aptQuestions {
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}

	// ─── Coding Exam ───────────────────────────────────────────────────
	coding := &model.Exam{
		Title:           "Coding Basics Demo",
		Description:     "One programming problem judged against hidden test cases.",
		DurationMinutes: 60,
		ExamType:        model.ExamTypeCoding,
		PassMarks:       5,
		CreatedBy:       admin.ID,
	}
	if err := examRepo.Create(ctx, coding); err != nil {
		log.Fatal().Err(err).Msg("Failed to create coding exam")
	}

	codingQuestion := &model.Question{
		ExamID:       coding.ID,
		QuestionText: "Read two integers from stdin and print their sum.",
		QuestionType: model.QuestionTypeCoding,
		Marks:        5,
		TestCases: []model.TestCase{
			{Input: "1 2", ExpectedOutput: "3"},
			{Input: "10 -4", ExpectedOutput: "6"},
			{Input: "0 0", ExpectedOutput: "0"},
		},
	}
	if err := questionRepo.Create(ctx, codingQuestion); err != nil {
		log.Fatal().Err(err).Msg("Failed to create coding question")
	}

	// Publish both so students can start as soon as the window opens.
	for _, examID := range []int64{aptitude.ID, coding.ID} {
		if err := examRepo.SetLive(ctx, examID, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to publish exam")
		}
	}

	// ─── Assignments ───────────────────────────────────────────────────
	startTime := time.Now().Add(5 * time.Minute)
	assigned := 0
	for _, examID := range []int64{aptitude.ID, coding.ID} {
		for _, studentID := range studentIDs {
			assignment := &model.StudentExam{
				StudentID: studentID,
				ExamID:    examID,
				StartTime: startTime,
			}
			if err := attemptRepo.Create(ctx, assignment); err != nil {
				log.Fatal().Err(err).Msg("Failed to assign exam")
			}
			assigned++
		}
	}

	fmt.Printf("Created 2 exams and %d assignments starting at %s\n", assigned, startTime.Format(time.RFC3339))
	fmt.Println("Done.")
}
