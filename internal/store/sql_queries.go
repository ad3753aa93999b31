// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package store

const (
	createUser = `INSERT INTO users (tg_id, chat_id, username, role, settings)
    VALUES (?, ?, ?, ?, ?)
    RETURNING user_id, tg_id, chat_id, username, role, settings, created_at, updated_at;`

	findUserByTgID = `SELECT user_id, tg_id, chat_id, username, role, settings, created_at, updated_at
    FROM users
    WHERE tg_id = ?;`

	countUsers = `SELECT COUNT(*) FROM users;`

	updateUserRole = `UPDATE users SET
		role       = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE tg_id = ?;`

	updateUserSettings = `UPDATE users SET
		settings   = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ?;`

	getEmbyConfig = `SELECT config_id, user_id, host, api_token, username, password, created_at, updated_at
	FROM emby_configs
	WHERE user_id = ?;`

	insertEmbyConfig = `INSERT INTO emby_configs (user_id, host, api_token, username, password)
	VALUES (?, ?, ?, ?, ?);`

	getQASConfig = `SELECT config_id, user_id, host, api_token, save_path_prefix, movie_save_path_prefix, pattern, "replace", created_at, updated_at
	FROM qas_configs
	WHERE user_id = ?;`

	insertQASConfig = `INSERT INTO qas_configs (user_id, host, api_token, save_path_prefix, movie_save_path_prefix, pattern, "replace")
	VALUES (?, ?, ?, ?, ?, ?, ?);`

	getAIProviderConfig = `SELECT config_id, user_id, provider_name, api_key, host, model, is_default, created_at, updated_at
	FROM ai_provider_configs
	WHERE user_id = ? AND provider_name = ?;`

	getDefaultAIProviderConfig = `SELECT config_id, user_id, provider_name, api_key, host, model, is_default, created_at, updated_at
	FROM ai_provider_configs
	WHERE user_id = ? AND is_default = TRUE;`

	listAIProviderConfigs = `SELECT config_id, user_id, provider_name, api_key, host, model, is_default, created_at, updated_at
	FROM ai_provider_configs
	WHERE user_id = ?
	ORDER BY provider_name;`

	insertAIProviderConfig = `INSERT INTO ai_provider_configs (user_id, provider_name, api_key, host, model, is_default)
	VALUES (?, ?, ?, ?, ?, ?);`

	deleteAIProviderConfig = `DELETE FROM ai_provider_configs
	WHERE user_id = ? AND provider_name = ?;`

	clearDefaultAIProvider = `UPDATE ai_provider_configs SET
		is_default = FALSE,
		updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ? AND is_default = TRUE;`

	markDefaultAIProvider = `UPDATE ai_provider_configs SET
		is_default = TRUE,
		updated_at = CURRENT_TIMESTAMP
	WHERE user_id = ? AND provider_name = ?;`

	createSchedulerJob = `INSERT INTO scheduler_jobs (job_id, user_id, chat_id, content, trigger_kind, run_at, cron_spec, next_fire)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	getSchedulerJob = `SELECT job_id, user_id, chat_id, content, trigger_kind, run_at, cron_spec, next_fire, created_at
	FROM scheduler_jobs
	WHERE job_id = ?;`

	deleteSchedulerJob = `DELETE FROM scheduler_jobs
	WHERE job_id = ?;`

	listDueSchedulerJobs = `SELECT job_id, user_id, chat_id, content, trigger_kind, run_at, cron_spec, next_fire, created_at
	FROM scheduler_jobs
	WHERE next_fire <= ?
	ORDER BY next_fire;`

	updateSchedulerJobNextFire = `UPDATE scheduler_jobs SET
		next_fire = ?
	WHERE job_id = ?;`

	createReminderLink = `INSERT INTO user_reminder_links (user_id, job_id, description)
	VALUES (?, ?, ?)
	RETURNING link_id, user_id, job_id, description, deleted_at, created_at;`

	getReminderLink = `SELECT link_id, user_id, job_id, description, deleted_at, created_at
	FROM user_reminder_links
	WHERE job_id = ? AND deleted_at IS NULL;`

	listUserReminderLinks = `SELECT link_id, user_id, job_id, description, deleted_at, created_at
	FROM user_reminder_links
	WHERE user_id = ? AND deleted_at IS NULL
	ORDER BY created_at DESC
	LIMIT ? OFFSET ?;`

	countUserReminderLinks = `SELECT COUNT(*)
	FROM user_reminder_links
	WHERE user_id = ? AND deleted_at IS NULL;`

	softDeleteReminderLink = `UPDATE user_reminder_links SET
		deleted_at = CURRENT_TIMESTAMP
	WHERE job_id = ? AND deleted_at IS NULL;`

	tombstoneOrphanReminderLinks = `UPDATE user_reminder_links SET
		deleted_at = ?
	WHERE deleted_at IS NULL
	  AND job_id NOT IN (SELECT job_id FROM scheduler_jobs);`

	appendOperationLog = `INSERT INTO operation_logs (user_id, operation, target_table, target_id, description)
	VALUES (?, ?, ?, ?, ?);`
)
