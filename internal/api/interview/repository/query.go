package interviewRepository

const (
	queryCreateInterview = `
		INSERT INTO interviews (
			id, user_id, role, type, level, techstack,
			questions, finalized, cover_image, created_at
		) VALUES (
			:id, :user_id, :role, :type, :level, :techstack,
			:questions, :finalized, :cover_image, :created_at
		)
	`

	queryGetInterviewByID = `
		SELECT
			id, user_id, role, type, level, techstack,
			questions, finalized, cover_image, created_at
		FROM interviews
		WHERE id = :id
	`

	queryGetInterviewsByUserID = `
		SELECT
			id, user_id, role, type, level, techstack,
			questions, finalized, cover_image, created_at
		FROM interviews
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit
	`

	queryCreateFeedback = `
		INSERT INTO feedback (
			id, interview_id, user_id, total_score, category_scores,
			strengths, areas_for_improvement, final_assessment, created_at
		) VALUES (
			:id, :interview_id, :user_id, :total_score, :category_scores,
			:strengths, :areas_for_improvement, :final_assessment, :created_at
		)
	`

	queryUpdateFeedback = `
		UPDATE feedback
		SET
			total_score = :total_score,
			category_scores = :category_scores,
			strengths = :strengths,
			areas_for_improvement = :areas_for_improvement,
			final_assessment = :final_assessment,
			created_at = :created_at
		WHERE id = :id AND interview_id = :interview_id AND user_id = :user_id
	`

	queryGetFeedbackByInterview = `
		SELECT
			id, interview_id, user_id, total_score, category_scores,
			strengths, areas_for_improvement, final_assessment, created_at
		FROM feedback
		WHERE interview_id = :interview_id AND user_id = :user_id
		ORDER BY created_at DESC
		LIMIT 1
	`

	queryUpsertSession = `
		INSERT INTO sessions (
			id, call_id, user_id, interview_id, feedback_id, mode, status,
			transcript, extracted_fields, last_error, created_at, updated_at
		) VALUES (
			:id, :call_id, :user_id, :interview_id, :feedback_id, :mode, :status,
			:transcript, :extracted_fields, :last_error, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			call_id = excluded.call_id,
			interview_id = excluded.interview_id,
			feedback_id = excluded.feedback_id,
			status = excluded.status,
			transcript = excluded.transcript,
			extracted_fields = excluded.extracted_fields,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
	`

	queryGetSessionByID = `
		SELECT
			id, call_id, user_id, interview_id, feedback_id, mode, status,
			transcript, extracted_fields, last_error, created_at, updated_at
		FROM sessions
		WHERE id = :id OR call_id = :id
		ORDER BY updated_at DESC
		LIMIT 1
	`
)
