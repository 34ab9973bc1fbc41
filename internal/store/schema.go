package store

// Schema v1 - catalog tables
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per song identity
CREATE TABLE IF NOT EXISTS songs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  artist TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  lyrics TEXT NOT NULL DEFAULT '',
  duration TEXT NOT NULL DEFAULT '',
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  url TEXT UNIQUE NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  plays TEXT NOT NULL DEFAULT '',
  likes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  source_tab TEXT NOT NULL DEFAULT '',
  suno_version TEXT,
  local_audio_path TEXT,
  local_cover_path TEXT,
  file_size INTEGER,
  audio_format TEXT,
  bpm REAL,
  musical_key TEXT,
  energy REAL,
  waveform_path TEXT,
  is_liked INTEGER NOT NULL DEFAULT 0,
  is_disliked INTEGER NOT NULL DEFAULT 0,
  extracted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  downloaded_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title);
CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist);

-- Tags are a union across imports
CREATE TABLE IF NOT EXISTS tags (
  song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
  tag TEXT NOT NULL,
  PRIMARY KEY (song_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);

CREATE TABLE IF NOT EXISTS ratings (
  song_id TEXT PRIMARY KEY REFERENCES songs(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  rated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Append-only play log
CREATE TABLE IF NOT EXISTS play_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
  played_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  duration_played INTEGER NOT NULL DEFAULT 0,
  completed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_play_history_song ON play_history(song_id);

CREATE TABLE IF NOT EXISTS playlists (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT UNIQUE NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  is_smart INTEGER NOT NULL DEFAULT 0,
  smart_criteria TEXT
);

CREATE TABLE IF NOT EXISTS playlist_songs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
  song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (playlist_id, song_id)
);
`

// Schema v2 - lookup indexes for history and playlists
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history(played_at);
CREATE INDEX IF NOT EXISTS idx_playlist_songs_position ON playlist_songs(playlist_id, position);
CREATE INDEX IF NOT EXISTS idx_songs_suno_version ON songs(suno_version);
`
