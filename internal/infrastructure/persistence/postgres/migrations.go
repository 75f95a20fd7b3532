// Package postgres implements the PostgreSQL persistence layer for LifeQuest Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS AND CHARACTERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users, characters and character_stats tables
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(254) NOT NULL UNIQUE,
    display_name VARCHAR(100) NOT NULL,
    password_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

-- One character per user
CREATE TABLE IF NOT EXISTS characters (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    class VARCHAR(50) NOT NULL DEFAULT '',
    backstory TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_characters_user_id ON characters(user_id);

-- Per-category progression rows. The version column backs optimistic
-- locking on concurrent XP awards.
CREATE TABLE IF NOT EXISTS character_stats (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    character_id UUID NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
    category VARCHAR(20) NOT NULL,
    total_xp INTEGER NOT NULL DEFAULT 0,
    current_xp INTEGER NOT NULL DEFAULT 0,
    current_level INTEGER NOT NULL DEFAULT 1,
    level_title VARCHAR(120) NOT NULL DEFAULT '',
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(character_id, category),

    CONSTRAINT valid_category CHECK (category IN ('physical', 'mental', 'social', 'craft', 'spirit', 'wealth')),
    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_current_xp CHECK (current_xp >= 0),
    CONSTRAINT valid_level CHECK (current_level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_character_stats_character_id ON character_stats(character_id);

-- XP history for auditing awards over time
CREATE TABLE IF NOT EXISTS xp_history (
    id SERIAL PRIMARY KEY,
    stat_id UUID NOT NULL REFERENCES character_stats(id) ON DELETE CASCADE,
    old_xp INTEGER NOT NULL,
    new_xp INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    source VARCHAR(20) NOT NULL,
    source_id VARCHAR(100),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_xp_history_stat_id ON xp_history(stat_id);
CREATE INDEX IF NOT EXISTS idx_xp_history_created_at ON xp_history(created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS xp_history;
DROP TABLE IF EXISTS character_stats;
DROP TABLE IF EXISTS characters;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TASKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create tasks table
-- Version: 002

CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    character_id UUID NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    difficulty VARCHAR(10) NOT NULL DEFAULT 'easy',
    status VARCHAR(10) NOT NULL DEFAULT 'pending',
    rewards JSONB NOT NULL DEFAULT '[]'::jsonb,
    suggested_by_ai BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_difficulty CHECK (difficulty IN ('easy', 'medium', 'hard', 'epic')),
    CONSTRAINT valid_status CHECK (status IN ('pending', 'completed', 'archived'))
);

CREATE INDEX IF NOT EXISTS idx_tasks_character_id ON tasks(character_id);
CREATE INDEX IF NOT EXISTS idx_tasks_character_status ON tasks(character_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_suggested ON tasks(character_id) WHERE suggested_by_ai AND status = 'pending';
`

const migration002Down = `
DROP TABLE IF EXISTS tasks;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE JOURNAL ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create journal_entries table
-- Version: 003

CREATE TABLE IF NOT EXISTS journal_entries (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    character_id UUID NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
    body TEXT NOT NULL,
    mood VARCHAR(10) NOT NULL DEFAULT '',
    weather JSONB,
    analysis JSONB,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_mood CHECK (mood IN ('', 'great', 'good', 'neutral', 'low', 'rough'))
);

CREATE INDEX IF NOT EXISTS idx_journal_entries_character_id ON journal_entries(character_id);
CREATE INDEX IF NOT EXISTS idx_journal_entries_recorded_at ON journal_entries(character_id, recorded_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS journal_entries;
`
