package session

// Instructions is the collaboration guide written into the first YAML
// document of every session file. It tells an agent opening the file how
// to participate without breaking the review.
const Instructions = `ACRE CODE REVIEW SESSION
========================

This file contains a code review session that you can collaborate on.
The review tool hot-reloads when you save changes to this file.

HOW TO PARTICIPATE
------------------

1. READ the diff_context below to understand what code changed
2. FIND comments that need a response (llm_response is null or missing)
3. RESPOND to those comments by adding an llm_response field
4. Only ADD new comments if explicitly requested in a comment

IMPORTANT: Only respond to hanging comments (where llm_response is null).
Do NOT add unsolicited comments unless a human comment asks for analysis.

COMMENT STRUCTURE
-----------------

Each comment in the files.<path>.comments list has these fields:

  - id: <uuid>              # Auto-generated, omit when adding new
  - author: "Agent (Model/Version)"  # e.g. "Agent (Claude/Opus-4.5)"
  - category: suggestion    # One of: note, suggestion, issue, praise, ai_analysis
  - content: "Your feedback here"
  - file_path: "path/to/file.py"
  - line_no: 42             # Line number, or null for file-level
  - line_no_end: null       # End line for ranges, or null
  - is_deleted_line: false  # true if commenting on a removed line
  - created_at: <iso-date>  # Auto-set, omit when adding new
  - updated_at: <iso-date>  # Auto-set, omit when adding new
  - llm_response: null      # Your response to a human comment

AUTHOR FORMAT
-------------

AI agents MUST use the author format "Agent (Model/Version)", for
example "Agent (Claude/Opus-4.5)" or "Agent (GPT-4)". Human authors use
"Name <email>" as detected from git config.

ADDING A NEW COMMENT
--------------------

Find the file in the files section and append to its comments list:

  files:
    src/example.py:
      comments:
        - author: "Agent (Claude/Opus-4.5)"
          category: suggestion
          content: |
            Consider using a context manager here to ensure
            the file is properly closed on exceptions.
          file_path: src/example.py
          line_no: 42

RESPONDING TO A HUMAN COMMENT
-----------------------------

Find the human's comment and add llm_response:

  - id: "abc123"
    author: "Jane Doe <jane@example.com>"
    category: issue
    content: "This might cause a race condition"
    llm_response: |
      Good catch! A mutex around the map access would fix this.

CATEGORIES EXPLAINED
--------------------

- note: General observation or context
- suggestion: Improvement that could be made
- issue: Problem that should be fixed
- praise: Positive feedback on good code
- ai_analysis: In-depth AI analysis (complexity, patterns, etc.)

IMPORTANT
---------

- Keep the YAML valid, the tool will fail to reload if syntax is broken
- The id, created_at, updated_at fields are auto-generated, omit them
- Line numbers refer to the NEW file (after changes), unless is_deleted_line=true`
