package catalog

import "github.com/qnotes/smap/internal/model"

// builtinSections returns the sample 10-Q section set used when neither a
// sections file nor the collaborator provides one. The structure follows
// the SEC 10-Q layout: Part I financial information, Part II other
// information.
func builtinSections() []model.Section {
	return []model.Section{
		{
			ID:          "financial_statements",
			Title:       "Financial Statements",
			Description: "Unaudited balance sheet, income statement, cash flows, and equity statements",
			Difficulty:  model.DifficultyBeginner,
			Part:        "Part I",
			Content: "The company's financial statements show total assets of $3.2 trillion, with revenue of " +
				"$42.5 billion (+6.8% YoY), net income of $13.4 billion, and operating cash flow of $15.2 billion. " +
				"Key metrics include ROE of 17.8%, CET1 ratio of 15.9%, and book value per share of $95.35.",
			LearningObjectives: []string{
				"Read and interpret financial statements",
				"Calculate key financial ratios",
				"Identify trends in financial performance",
			},
			SMAPFocus: "Metrics and Assessment",
		},
		{
			ID:          "md_a",
			Title:       "Management's Discussion & Analysis (MD&A)",
			Description: "Management's explanation of financial condition and operational results",
			Difficulty:  model.DifficultyIntermediate,
			Part:        "Part I",
			Content: "Management expressed strong confidence in Q1 performance, highlighting robust revenue growth " +
				"driven by digital transformation initiatives. The fortress balance sheet strategy provides " +
				"flexibility for economic volatility while maintaining strong profitability metrics. Credit " +
				"provisions remain well-controlled despite economic uncertainty.",
			LearningObjectives: []string{
				"Analyze management's tone and strategic priorities",
				"Connect financial results to business drivers",
				"Identify forward-looking statements and risks",
			},
			SMAPFocus: "Subjective and Assessment",
		},
		{
			ID:          "market_risk",
			Title:       "Market Risk Disclosures",
			Description: "Quantitative and qualitative disclosures about market risk exposure",
			Difficulty:  model.DifficultyAdvanced,
			Part:        "Part I",
			Content: "The company faces market risks including interest rate sensitivity, foreign exchange exposure, " +
				"and credit risk. Interest rate risk is managed through asset-liability matching, with a net " +
				"interest margin of 2.74%. Foreign exchange exposure is primarily in European operations, " +
				"representing 15% of total revenue.",
			LearningObjectives: []string{
				"Understand different types of market risks",
				"Assess risk measurement methodologies",
				"Evaluate risk management strategies",
			},
			SMAPFocus: "Assessment and Plan",
		},
		{
			ID:          "controls_procedures",
			Title:       "Controls and Procedures",
			Description: "Internal controls and procedures for financial reporting",
			Difficulty:  model.DifficultyIntermediate,
			Part:        "Part I",
			Content: "Management maintains a comprehensive system of internal controls designed to ensure reliable " +
				"financial reporting. The internal control framework includes risk assessment, control activities, " +
				"information systems, and monitoring procedures. No material weaknesses were identified during the " +
				"quarter.",
			LearningObjectives: []string{
				"Understand internal control frameworks",
				"Evaluate effectiveness of internal controls",
				"Identify control deficiencies and remediation plans",
			},
			SMAPFocus: "Subjective and Plan",
		},
		{
			ID:          "legal_proceedings",
			Title:       "Legal Proceedings",
			Description: "Material legal proceedings and regulatory matters",
			Difficulty:  model.DifficultyBeginner,
			Part:        "Part II",
			Content: "The company is involved in various legal proceedings, including regulatory investigations and " +
				"civil litigation. Management believes these matters will not have a material adverse effect on the " +
				"company's financial condition, but acknowledges potential risks and uncertainties.",
			LearningObjectives: []string{
				"Identify material legal risks",
				"Assess potential financial impact",
				"Understand regulatory compliance requirements",
			},
			SMAPFocus: "Subjective and Assessment",
		},
		{
			ID:          "risk_factors",
			Title:       "Risk Factors",
			Description: "Significant risks affecting business and financial condition",
			Difficulty:  model.DifficultyIntermediate,
			Part:        "Part II",
			Content: "Key risk factors include economic uncertainty, regulatory changes, competitive pressures, " +
				"credit quality deterioration, interest rate volatility, cybersecurity threats, and operational " +
				"risks. Management has implemented comprehensive risk management frameworks to monitor and mitigate " +
				"these exposures.",
			LearningObjectives: []string{
				"Categorize different types of business risks",
				"Assess risk impact and probability",
				"Evaluate risk mitigation strategies",
			},
			SMAPFocus: "Subjective and Plan",
		},
		{
			ID:          "unregistered_securities",
			Title:       "Unregistered Sales of Equity Securities",
			Description: "Information on unregistered securities sales and use of proceeds",
			Difficulty:  model.DifficultyBeginner,
			Part:        "Part II",
			Content: "During the quarter, the company did not engage in any unregistered sales of equity securities. " +
				"All securities offerings were conducted through registered transactions or qualified exemptions " +
				"under applicable securities laws.",
			LearningObjectives: []string{
				"Understand securities registration requirements",
				"Identify exempt transactions",
				"Track use of offering proceeds",
			},
			SMAPFocus: "Metrics and Plan",
		},
		{
			ID:          "senior_securities_defaults",
			Title:       "Defaults Upon Senior Securities",
			Description: "Disclosures concerning defaults on senior securities",
			Difficulty:  model.DifficultyBeginner,
			Part:        "Part II",
			Content: "No defaults on senior securities occurred during the quarter. The company maintains strong " +
				"credit ratings and has not experienced any payment defaults on its outstanding debt obligations.",
			LearningObjectives: []string{
				"Understand senior security obligations",
				"Identify default triggers and consequences",
				"Assess credit quality indicators",
			},
			SMAPFocus: "Assessment",
		},
		{
			ID:          "other_information",
			Title:       "Other Information",
			Description: "Other relevant information and disclosures",
			Difficulty:  model.DifficultyIntermediate,
			Part:        "Part II",
			Content: "The company continues to focus on digital transformation initiatives, including investments in " +
				"technology infrastructure, cybersecurity enhancements, and customer experience improvements. " +
				"Management remains committed to sustainable business practices and stakeholder value creation.",
			LearningObjectives: []string{
				"Identify non-financial business developments",
				"Analyze strategic initiatives and future outlook",
				"Understand corporate governance and social responsibility",
			},
			SMAPFocus: "Subjective and Plan",
		},
	}
}
