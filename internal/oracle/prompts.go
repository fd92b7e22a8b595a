package oracle

// The model is asked for bare JSON matching domain.FileMapping's wire shape.
// cleanModelJSON still strips fences afterwards because models are stubborn
// about markdown.

const mapColumnsPrompt = `I have a CSV/Excel file with financial transactions. I need to map its columns to a standard format so I can process it.

Headers found in file: %s

Sample Data (%d rows):
%s

Your task is to analyze the headers and the data content to identify which column corresponds to standard fields.

Return a JSON object STRICTLY matching this structure:
{
  "dateColumn": "Name of the column containing the transaction date",
  "dateFormat": "Format of the date if discernable (e.g., 'YYYYMMDD', 'DD/MM/YYYY')",
  "amountColumn": "Name of the column containing the transaction amount (if single column)",
  "categoryColumn": "Name of the column for category (or null)",
  "subcategoryColumn": "Name of the column for subcategory (or null)",
  "descriptionColumn": "Name of the column for notes/description (or null)",
  "typeColumn": "Name of the column explicitly specifying Income/Expense type (or null)",
  "projectColumn": "Name of column for Project/Tag (or null)",
  "isCreditDebitSeparate": boolean,
  "creditColumn": "Name of Credit/Deposit column if separate (or null)",
  "debitColumn": "Name of Debit/Withdrawal column if separate (or null)",
  "expenseTransferColumn": "'Expense(Transfer Out)' style column name (or null)",
  "incomeTransferColumn": "'Income(Transfer In)' style column name (or null)"
}

Logic Guidelines:
1. If you see columns like "Expense(Transfer Out)" and "Income(Transfer In)", map them to expenseTransferColumn/incomeTransferColumn.
2. If you see separate "Debit" and "Credit" columns (or Withdrawal/Deposit), set isCreditDebitSeparate to true and map them.
3. If only one amount column exists, map it to amountColumn.
4. Check if there is an explicit "Type" column (often values like "Income", "Expense", "Transfer").

Return ONLY valid raw JSON. Do NOT wrap the response in code fences.`

const detectStructurePrompt = `I have a raw dataset extracted from a financial file (CSV/Excel). The file might contain metadata rows at the top (like address, account info) before the actual header row.

Here are the first %d rows of the data:
%s

TASK:
1. Identify the 0-based index of the row that serves as the HEADER for the transaction table. It usually contains columns like "Date", "Description", "Narration", "Amount", "Debit", "Credit", "Balance".
2. Create a mapping for the columns based on that header row.

Return a JSON object STRICTLY matching this structure:
{
  "headerIndex": number,
  "mapping": {
    "dateColumn": "Exact name of date column",
    "dateFormat": "Format if known",
    "amountColumn": "Exact name of amount column (or null if using debit/credit)",
    "categoryColumn": "Exact name of category column (or null)",
    "subcategoryColumn": "Exact name of subcategory column (or null)",
    "descriptionColumn": "Exact name of description/narration column",
    "typeColumn": "Exact name of type column (or null)",
    "projectColumn": "Exact name of project column (or null)",
    "isCreditDebitSeparate": boolean,
    "creditColumn": "Exact name of Credit/Deposit column (or null)",
    "debitColumn": "Exact name of Debit/Withdrawal column (or null)",
    "expenseTransferColumn": null,
    "incomeTransferColumn": null
  }
}

Set "headerIndex" to -1 if no transaction table exists.
Return ONLY valid raw JSON. Do NOT wrap the response in code fences.`

const extractStatementPrompt = `Analyze this bank statement PDF. Extract all financial transactions into a minified JSON array of arrays.

Output Format: [[date, description, raw_amount_string, type, category], ...]

Columns:
0. Date (STRICTLY YYYY-MM-DD format, e.g. 2024-05-25. Convert from DD/MM/YYYY if needed.)
1. Description (String)
2. Raw Amount (String, exactly as shown in PDF, e.g. "+70.00", "1,200.00", "50.00 Dr")
3. Type ("Income" or "Expense")
4. Category (Suggested category, MAX 2 WORDS, e.g. "Food", "Transport", "Dining Out")

Rules:
- Keep the amount exactly as shown (do not strip signs).
- Ignore opening/closing balances.
- If the amount is a Credit, Refund, or has a '+' sign, mark type as 'Income'.

Return ONLY the raw JSON array of arrays. No markdown.`
