package exportstate

const createSQL = `
PRAGMA auto_vacuum = INCREMENTAL;

-- Completed records one row per exported (mailbox, record), recording
-- where it landed and when it finished so a resumed run can skip it.
CREATE TABLE IF NOT EXISTS Completed (
	MailboxNumber INTEGER NOT NULL,
	RecordIndex   INTEGER NOT NULL,
	DestPath      TEXT NOT NULL,
	FinishedUnix  INTEGER NOT NULL,
	PRIMARY KEY (MailboxNumber, RecordIndex)
);

-- Staging holds an attachment's bytes while they are copied out of the
-- EDB long-value stream, so a crash mid-copy never leaves a
-- half-written file counted as done in Completed.
CREATE TABLE IF NOT EXISTS Staging (
	MailboxNumber INTEGER NOT NULL,
	RecordIndex   INTEGER NOT NULL,
	AttachIndex   INTEGER NOT NULL,
	Content       BLOB,
	PRIMARY KEY (MailboxNumber, RecordIndex, AttachIndex)
);
`
