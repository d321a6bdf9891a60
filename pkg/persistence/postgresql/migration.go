package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create form_templates table
			CREATE TABLE form_templates (
				id TEXT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category VARCHAR(255) NOT NULL DEFAULT '',
				fields JSONB NOT NULL DEFAULT '[]',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_form_templates_status ON form_templates(status);
			CREATE INDEX idx_form_templates_category ON form_templates(category);
			CREATE INDEX idx_form_templates_created_at ON form_templates(created_at);
		`,
		2: `
			-- Create form_submissions table
			CREATE TABLE form_submissions (
				id TEXT PRIMARY KEY,
				form_id TEXT NOT NULL,
				form_title VARCHAR(255) NOT NULL,
				submitted_by JSONB NOT NULL,
				submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
				responses JSONB NOT NULL DEFAULT '{}',
				status VARCHAR(50) NOT NULL
			);

			CREATE INDEX idx_form_submissions_form_id ON form_submissions(form_id, submitted_at);
		`,
	}
}
