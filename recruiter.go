/*
Package recruiter sends personalized recruitment emails from the command line.

Each run renders one of two plain-text templates for a single recipient,
picks a subject line (generated by a local Ollama model, or a professional
default when the model is unavailable), attaches the newest resume and
delivers the message over Gmail SMTP with STARTTLS. Every attempt, sent or
failed, is appended to a JSON activity log.

# Configuration

The first run reads setup_details.txt and the preferred template file and
saves .recruiter.yaml. RECRUITER_* environment variables override saved
values.

# Usage

	recruiter init       # Create starter setup and template files
	recruiter setup      # Save the configuration
	recruiter send       # Prompt for recipient details and send
	recruiter status     # Check configuration, resume, and Ollama
	recruiter history    # Show recent emails
*/
package recruiter

// Version is the current version of Recruiter
const Version = "1.0.0"

// BuildDate is set at build time
var BuildDate string

// GitCommit is set at build time
var GitCommit string
