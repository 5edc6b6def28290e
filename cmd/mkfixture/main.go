// mkfixture generates a small self-consistent demo bundle: a gzipped
// vocabulary slice, a hospital dimension CSV, and per-hospital source files
// shaped to the embedded adapter rules. Useful for local runs and manual
// testing without real transparency files.
// Usage: go run ./cmd/mkfixture --out testdata/demo
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	out := flag.String("out", "testdata/demo", "output directory")
	flag.Parse()

	srcDir := filepath.Join(*out, "sources")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	files := map[string]string{
		filepath.Join(*out, "hospitals.csv"):  hospitalDim,
		filepath.Join(srcDir, "101.csv"):      tennovaCSV,
		filepath.Join(srcDir, "205.json"):     covenantJSON,
		filepath.Join(srcDir, "460.csv"):      uhsCSV,
		filepath.Join(srcDir, "470.xlsx.csv"): sunBehavioralCSV,
		filepath.Join(srcDir, "512.csv"):      stDominicCSV,
		filepath.Join(srcDir, "530.csv"):      iredellCSV,
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	vocabPath := filepath.Join(*out, "CONCEPT.csv.gz")
	if err := writeGzip(vocabPath, conceptTSV); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", vocabPath, err)
		os.Exit(1)
	}

	fmt.Printf("Demo bundle written to %s\n", *out)
	fmt.Printf("Try: factload run --vocab %s --hospitals %s --input %s --out %s --sink csv\n",
		vocabPath, filepath.Join(*out, "hospitals.csv"), srcDir, filepath.Join(*out, "facts"))
}

func writeGzip(path, body string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(body)); err != nil {
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Vocabulary slice in OHDSI CONCEPT layout. Includes non-procedure rows so a
// demo run exercises the vocabulary filter too.
const conceptTSV = "concept_id\tconcept_name\tdomain_id\tvocabulary_id\tconcept_class_id\tstandard_concept\tconcept_code\n" +
	"2414397\tOffice visit, established patient\tProcedure\tCPT4\tCPT4\tS\t99213\n" +
	"2414398\tOffice visit, established patient, extended\tProcedure\tCPT4\tCPT4\tS\t99214\n" +
	"2108115\tChest x-ray, two views\tProcedure\tCPT4\tCPT4\tS\t71046\n" +
	"2212168\tComprehensive metabolic panel\tProcedure\tCPT4\tCPT4\tS\t80053\n" +
	"2211359\tComplete blood count, automated\tProcedure\tCPT4\tCPT4\tS\t85025\n" +
	"40664718\tInfluenza vaccine, quadrivalent\tProcedure\tHCPCS\tHCPCS\tS\tQ2039\n" +
	"2617204\tAmbulance service, BLS\tProcedure\tHCPCS\tHCPCS\tS\tA0428\n" +
	"1127433\tAcetaminophen\tDrug\tRxNorm\tIngredient\tS\t161\n" +
	"320128\tEssential hypertension\tCondition\tSNOMED\tClinical Finding\tS\t59621000\n"

const hospitalDim = "hospital_id,name,affiliation\n" +
	"101,Tennova Turkey Creek,Tennova Healthcare\n" +
	"205,Covenant Fort Sanders,Covenant Health\n" +
	"460,UHS Peninsula,UHS\n" +
	"470,SUN Behavioral Kentucky,SUN Behavioral\n" +
	"512,St. Dominic Memorial,\n" +
	"530,Iredell Memorial,\n" +
	"999,Unadapted General,\n"

const tennovaCSV = "Tennova Healthcare Standard Charges\n" +
	"Effective 2024-01-01\n" +
	"CPT Code,Description,Gross Charge,Discounted Cash Price\n" +
	"099213,Office visit est,$185.00,$92.50\n" +
	"71046,Chest x-ray 2 views,\"$1,240.00\",$310.00\n" +
	"80053,Metabolic panel,$96.00,N/A\n" +
	"XXXXX,Facility fee,$500.00,$250.00\n"

const covenantJSON = `{
  "hospital": "Covenant Fort Sanders",
  "data": [
    {"code": "99214", "description": "Office visit ext", "gross charge": "240.00", "discounted cash price": "120.00"},
    {"code": "85025", "description": "CBC", "gross charge": "54.00", "discounted cash price": "27.00"},
    {"code": "", "description": "Trauma activation", "gross charge": "9000.00", "discounted cash price": ""}
  ]
}
`

const uhsCSV = "Procedure,Charge\n" +
	"Psych eval HCPCS 99213 initial,$310.00\n" +
	"Transport HCPCS A0428 base,$720.00\n" +
	"Daily room rate,$1500.00\n"

const sunBehavioralCSV = "Code,Description,Standard Charge,Self Pay\n" +
	"CPT-99213,Office visit est,$200.00,$100.00\n" +
	"CPT-Q2039,Flu vaccine,$45.00,$22.00\n"

const stDominicCSV = "Charge Code,Description,Department,Price,Price\n" +
	"085025,CBC automated,LAB,$61.00,$30.00\n" +
	"99213,Office visit est,CLINIC,$175.00,$88.00\n"

const iredellCSV = "HCPCS,Description,Gross Charge,Discounted Cash Price,De-identified Minimum,De-identified Maximum\n" +
	"099213,Office visit est,190.00,95.00,80.00,210.00\n" +
	"A0428,Ambulance BLS,700.00,350.00,300.00,800.00\n"
