// Package migrations содержит SQL-схему сервиса.
// SQL встроен в код для упрощения деплоя; порядок версий важен.
//
// Ограничения из предметной области продублированы в схеме (CHECK/UNIQUE),
// чтобы ошибка в коде не могла оставить таблицы в неверном состоянии.
package migrations

import "serotonyl.ru/boostly/internal/db/postgres"

// All — все миграции в порядке применения.
var All = []postgres.Migration{
	{Version: 1, Name: "students", SQL: migration001Students},
	{Version: 2, Name: "recognitions", SQL: migration002Recognitions},
	{Version: 3, Name: "redemptions", SQL: migration003Redemptions},
	{Version: 4, Name: "credit_ledger", SQL: migration004Ledger},
	{Version: 5, Name: "monthly_quota", SQL: migration005Quota},
	{Version: 6, Name: "admin_sessions", SQL: migration006Admin},
}

var migration001Students = `
CREATE TABLE IF NOT EXISTS students (
    student_id UUID PRIMARY KEY,
    campus_uid VARCHAR(64) UNIQUE NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    display_name VARCHAR(120) NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration002Recognitions = `
CREATE TABLE IF NOT EXISTS recognitions (
    recognition_id UUID PRIMARY KEY,
    sender_id UUID NOT NULL REFERENCES students(student_id),
    receiver_id UUID NOT NULL REFERENCES students(student_id),
    credits_transferred INTEGER NOT NULL CHECK (credits_transferred BETWEEN 1 AND 100),
    message VARCHAR(280),
    month_bucket DATE NOT NULL,
    endorsement_count INTEGER NOT NULL DEFAULT 0 CHECK (endorsement_count >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ck_recognitions_not_self CHECK (sender_id <> receiver_id)
);
CREATE INDEX IF NOT EXISTS idx_recognitions_sender ON recognitions(sender_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recognitions_receiver ON recognitions(receiver_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_recognitions_created_at ON recognitions(created_at DESC);

CREATE TABLE IF NOT EXISTS recognition_endorsements (
    endorsement_id UUID PRIMARY KEY,
    recognition_id UUID NOT NULL REFERENCES recognitions(recognition_id) ON DELETE CASCADE,
    endorser_id UUID NOT NULL REFERENCES students(student_id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_endorsement_once UNIQUE (recognition_id, endorser_id)
);
CREATE INDEX IF NOT EXISTS idx_endorsements_recognition ON recognition_endorsements(recognition_id, created_at DESC);
`

var migration003Redemptions = `
CREATE TABLE IF NOT EXISTS redemptions (
    redemption_id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(student_id),
    credits_redeemed INTEGER NOT NULL CHECK (credits_redeemed > 0),
    voucher_value INTEGER GENERATED ALWAYS AS (credits_redeemed * 5) STORED,
    status VARCHAR(16) NOT NULL DEFAULT 'PENDING'
        CHECK (status IN ('PENDING', 'ISSUED', 'FAILED', 'CANCELLED')),
    reference_code VARCHAR(64),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    fulfilled_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_redemptions_student ON redemptions(student_id, created_at DESC);
`

var migration004Ledger = `
CREATE TABLE IF NOT EXISTS credit_ledger (
    ledger_entry_id BIGSERIAL PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(student_id),
    related_recognition UUID REFERENCES recognitions(recognition_id),
    related_redemption UUID REFERENCES redemptions(redemption_id),
    event_type VARCHAR(32) NOT NULL,
    credits_delta INTEGER NOT NULL,
    month_bucket DATE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ck_credit_ledger_sign CHECK (
        (event_type IN ('RECOGNITION_SENT', 'REDEMPTION', 'CARRY_FORWARD_EXPIRED') AND credits_delta < 0)
        OR
        (event_type IN ('RECOGNITION_RECEIVED', 'MONTHLY_RESET', 'CARRY_FORWARD') AND credits_delta > 0)
    )
);
CREATE INDEX IF NOT EXISTS idx_credit_ledger_student_month ON credit_ledger(student_id, month_bucket, event_type);
`

var migration005Quota = `
CREATE TABLE IF NOT EXISTS monthly_quota (
    id BIGSERIAL PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(student_id),
    month_bucket DATE NOT NULL,
    credits_sent INTEGER NOT NULL DEFAULT 0 CHECK (credits_sent >= 0),
    send_limit INTEGER NOT NULL DEFAULT 100 CHECK (send_limit > 0),
    carry_forward_applied BOOLEAN NOT NULL DEFAULT FALSE,
    carry_forward_credits INTEGER NOT NULL DEFAULT 0 CHECK (carry_forward_credits BETWEEN 0 AND 50),
    reset_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_monthly_quota_student_month UNIQUE (student_id, month_bucket),
    CONSTRAINT ck_monthly_quota_cap CHECK (credits_sent <= send_limit)
);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    telegram_user_id BIGINT NOT NULL,
    session_token VARCHAR(64) NOT NULL UNIQUE,
    authenticated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(telegram_user_id, is_active);

CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    telegram_user_id BIGINT NOT NULL,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    success BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(telegram_user_id, attempt_time DESC);
`
