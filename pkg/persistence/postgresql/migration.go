package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create workflows table
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				owner_id VARCHAR(255) NOT NULL,
				trigger_spec JSONB NOT NULL,
				steps JSONB NOT NULL,
				result JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_owner_id ON workflows(owner_id);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
		`,
		2: `
			-- Create jobs and job_results tables
			CREATE TABLE jobs (
				id UUID PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_jobs_workflow_id ON jobs(workflow_id);
			CREATE INDEX idx_jobs_user_id ON jobs(user_id);
			CREATE INDEX idx_jobs_status ON jobs(status);
			CREATE INDEX idx_jobs_created_at ON jobs(created_at);

			CREATE TABLE job_results (
				id UUID PRIMARY KEY,
				job_id UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
				result JSONB,
				failure_reason TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_job_results_job_id ON job_results(job_id);
			CREATE INDEX idx_job_results_status ON job_results(status);
		`,
	}
}
