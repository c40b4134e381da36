package ai

// transfersSchemaDescription describes the ClickHouse schema used for
// NL→SQL prompting. Keep in sync with the transfers table definition.
const transfersSchemaDescription = `
Database: solana
Table: transfers

Columns:
  - signature     String                  -- Solana transaction signature (unique id)
  - timestamp     DateTime                -- Block time of the transfer (UTC)
  - type          String                  -- "buy" or "sell" relative to the tracked token account
  - amount        Decimal(38, 12)         -- Token amount moved
  - protocol      String                  -- Program that owned the transfer instruction (e.g. "spl-token")
  - token_account String                  -- Token account the ingestion was scoped to

Notes:
  - Rows are append-only; one row per signature.
  - "buy" means tokens flowed INTO the tracked token account, "sell" means out.
  - For volume use SUM(amount), optionally grouped by type or protocol.
  - Time filters should use timestamp, e.g. timestamp >= now() - INTERVAL 24 HOUR.
`
